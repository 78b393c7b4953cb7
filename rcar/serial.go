package rcar

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// SerialConfig describes the UART framing of the remote link.
type SerialConfig struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`
}

// DefaultSerialConfig is 9600 8N1.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		BaudRate: DefaultBaudRate,
		DataBits: DefaultDataBits,
		Parity:   "N",
		StopBits: 1,
	}
}

// Normalize applies defaults for unset values and validates the rest.
func (c SerialConfig) Normalize() (SerialConfig, error) {
	if c.BaudRate < 0 {
		return c, fmt.Errorf("baud_rate: %d must be positive", c.BaudRate)
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}

	if c.DataBits == 0 {
		c.DataBits = DefaultDataBits
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return c, fmt.Errorf("data_bits: %d must be in range [5,8]", c.DataBits)
	}

	if c.StopBits == 0 {
		c.StopBits = 1
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return c, fmt.Errorf("stop_bits: %d must be 1 or 2", c.StopBits)
	}

	switch strings.ToUpper(strings.TrimSpace(c.Parity)) {
	case "", "N", "NONE":
		c.Parity = "N"
	case "E", "EVEN":
		c.Parity = "E"
	case "O", "ODD":
		c.Parity = "O"
	default:
		return c, fmt.Errorf("parity: unsupported %q", c.Parity)
	}

	return c, nil
}

// Mode converts the configuration into the go.bug.st/serial representation.
func (c SerialConfig) Mode() (*serial.Mode, error) {
	c, err := c.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	switch c.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}

	if c.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	return mode, nil
}
