package rcard

import (
	"fmt"
	"os"
	"time"

	"github.com/mdouchement/rcard/hwio/sysfs"
	"github.com/mdouchement/rcard/rcar"
	"go.yaml.in/yaml/v4"
)

// PortAuto selects the serial adapter by VID/PID, PortStdio reads commands from stdin.
const (
	PortAuto  = "auto"
	PortStdio = "-"
)

type Config struct {
	Debug          bool         `yaml:"debug"`
	Socket         string       `yaml:"socket"`
	ReconnectDelay Duration     `yaml:"reconnect_delay"`
	Serial         Serial       `yaml:"serial"`
	Duty           DutySettings `yaml:"duty"`
	Hardware       sysfs.Config `yaml:"hardware"`
}

type Serial struct {
	Port              string   `yaml:"port"`
	VID               string   `yaml:"vid"`
	PID               string   `yaml:"pid"`
	ReadTimeout       Duration `yaml:"read_timeout"`
	rcar.SerialConfig `yaml:",inline"`
}

// DutySettings are the drive duties used by moving commands.
type DutySettings struct {
	Left  *uint16 `yaml:"left"`
	Right *uint16 `yaml:"right"`
}

// Default returns the configuration used when no key is set.
func Default() Config {
	return Config{
		Socket:         "/run/rcard/rcard.sock",
		ReconnectDelay: Duration{2 * time.Second},
		Serial: Serial{
			Port:         PortAuto,
			VID:          rcar.DefaultVID,
			PID:          rcar.DefaultPID,
			ReadTimeout:  Duration{200 * time.Millisecond},
			SerialConfig: rcar.DefaultSerialConfig(),
		},
		Duty: DutySettings{
			Left:  ToPtr(rcar.DefaultLeftDuty),
			Right: ToPtr(rcar.DefaultRightDuty),
		},
		Hardware: sysfs.DefaultConfig(),
	}
}

func Load(path string) (Config, error) {
	c := Default()
	c.Hardware.DirectionGPIOs = nil // Filled by Normalize when absent, never merged with the user's mapping.

	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	codec := yaml.NewDecoder(f)
	err = codec.Decode(&c)
	if err != nil {
		return c, err
	}

	return c.Normalize()
}

// Normalize validates c and applies defaults for zero values.
func (c Config) Normalize() (Config, error) {
	def := Default()

	if c.ReconnectDelay.Duration < 0 {
		return c, fmt.Errorf("reconnect_delay: %s must be positive", c.ReconnectDelay)
	}
	if c.ReconnectDelay.Duration == 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}

	if c.Serial.Port == "" {
		c.Serial.Port = PortAuto
	}
	if c.Serial.Port == PortAuto && (c.Serial.VID == "" || c.Serial.PID == "") {
		return c, fmt.Errorf("serial: vid and pid are required with port %s", PortAuto)
	}
	if c.Serial.ReadTimeout.Duration < 0 {
		return c, fmt.Errorf("serial: read_timeout: %s must be positive", c.Serial.ReadTimeout)
	}

	var err error
	c.Serial.SerialConfig, err = c.Serial.SerialConfig.Normalize()
	if err != nil {
		return c, fmt.Errorf("serial: %w", err)
	}

	if c.Duty.Left == nil {
		c.Duty.Left = def.Duty.Left
	}
	if c.Duty.Right == nil {
		c.Duty.Right = def.Duty.Right
	}
	if err = rcar.ChannelLeft.Validate(*c.Duty.Left); err != nil {
		return c, fmt.Errorf("duty: %w", err)
	}
	if err = rcar.ChannelRight.Validate(*c.Duty.Right); err != nil {
		return c, fmt.Errorf("duty: %w", err)
	}

	c.Hardware, err = c.Hardware.Normalize()
	if err != nil {
		return c, fmt.Errorf("hardware: %w", err)
	}

	return c, nil
}

// Motions returns the dispatch table for the configured duties.
func (c Config) Motions() []rcar.Motion {
	left, right := rcar.DefaultLeftDuty, rcar.DefaultRightDuty
	if c.Duty.Left != nil {
		left = *c.Duty.Left
	}
	if c.Duty.Right != nil {
		right = *c.Duty.Right
	}

	return rcar.Motions(left, right)
}
