package sysfs

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mdouchement/rcard/rcar"
)

// Config maps the two PWM channels and the output lines of the H-bridge onto sysfs.
type Config struct {
	PWMChip        int           `yaml:"pwm_chip"`
	LeftChannel    int           `yaml:"left_channel"`
	RightChannel   int           `yaml:"right_channel"`
	PeriodNS       uint64        `yaml:"period_ns"`
	DirectionGPIOs map[uint8]int `yaml:"direction_gpios"` // direction bit => gpio line
	IndicatorGPIO  *int          `yaml:"indicator_gpio"`
}

func DefaultConfig() Config {
	indicator := 24
	return Config{
		PWMChip:      0,
		LeftChannel:  0,
		RightChannel: 1,
		PeriodNS:     1_000_000, // 1kHz
		DirectionGPIOs: map[uint8]int{
			2: 17,
			3: 27,
			4: 22,
			5: 23,
		},
		IndicatorGPIO: &indicator,
	}
}

// Normalize fills the unset fields from DefaultConfig and validates the result.
func (c Config) Normalize() (Config, error) {
	def := DefaultConfig()
	if c.PeriodNS == 0 {
		c.PeriodNS = def.PeriodNS
	}
	if len(c.DirectionGPIOs) == 0 {
		c.DirectionGPIOs = def.DirectionGPIOs
	}
	if c.IndicatorGPIO == nil {
		c.IndicatorGPIO = def.IndicatorGPIO
	}

	if c.PWMChip < 0 {
		return c, fmt.Errorf("pwm_chip: %d must be positive", c.PWMChip)
	}
	if c.LeftChannel < 0 || c.RightChannel < 0 {
		return c, fmt.Errorf("left_channel/right_channel: must be positive")
	}
	if c.LeftChannel == c.RightChannel {
		return c, fmt.Errorf("left_channel/right_channel: both use pwm%d", c.LeftChannel)
	}

	lines := map[int]bool{}
	for _, bit := range slices.Sorted(maps.Keys(c.DirectionGPIOs)) {
		line := c.DirectionGPIOs[bit]
		if bit > 7 {
			return c, fmt.Errorf("direction_gpios: bit %d out of range [0,7]", bit)
		}
		if line < 0 {
			return c, fmt.Errorf("direction_gpios: bit %d: invalid gpio %d", bit, line)
		}
		if lines[line] {
			return c, fmt.Errorf("direction_gpios: gpio %d used twice", line)
		}
		lines[line] = true
	}

	if *c.IndicatorGPIO >= 0 && lines[*c.IndicatorGPIO] {
		return c, fmt.Errorf("indicator_gpio: gpio %d already drives a direction bit", *c.IndicatorGPIO)
	}

	return c, nil
}

func (c Config) channel(ch rcar.Channel) int {
	if ch == rcar.ChannelLeft {
		return c.LeftChannel
	}
	return c.RightChannel
}
