package rcar

import (
	"errors"
	"fmt"
)

var ErrInvalidDuty = errors.New("invalid duty value")

type (
	Command   uint8
	Direction uint8
	Indicator uint8
	Channel   uint8
)

// A Motion is what a recognised Command does to the vehicle.
type Motion struct {
	Command   Command
	Name      string
	LeftDuty  uint16
	RightDuty uint16
	Direction Direction
	Indicator Indicator
	Ack       string
}

// Motions returns the dispatch table for the given drive duties, in protocol order.
func Motions(left, right uint16) []Motion {
	return []Motion{
		{Command: CommandForward, Name: "forward", LeftDuty: left, RightDuty: right, Direction: DirectionForward, Indicator: IndicatorWorking, Ack: AckForward},
		{Command: CommandTurnLeft, Name: "turn-left", LeftDuty: left, RightDuty: 0, Direction: DirectionLeft, Indicator: IndicatorWorking, Ack: AckTurnLeft},
		{Command: CommandTurnRight, Name: "turn-right", LeftDuty: 0, RightDuty: right, Direction: DirectionRight, Indicator: IndicatorWorking, Ack: AckTurnRight},
		{Command: CommandBackward, Name: "backward", LeftDuty: left, RightDuty: right, Direction: DirectionBackward, Indicator: IndicatorWorking, Ack: AckBackward},
		{Command: CommandStop, Name: "stop", LeftDuty: 0, RightDuty: 0, Direction: DirectionStop, Indicator: IndicatorOff, Ack: AckStop},
	}
}

// Lookup finds the Motion of b in the given table.
func Lookup(table []Motion, b byte) (Motion, bool) {
	for _, m := range table {
		if byte(m.Command) == b {
			return m, true
		}
	}

	return Motion{}, false
}

func (c Command) String() string {
	return string(rune(c))
}

func (c Command) MarshalText() ([]byte, error) {
	return []byte{byte(c)}, nil
}

func (c *Command) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("invalid command %q", text)
	}

	*c = Command(text[0])
	return nil
}

func (d Direction) String() string {
	return fmt.Sprintf("%08b", uint8(d))
}

func (ch Channel) String() string {
	switch ch {
	case ChannelLeft:
		return "left"
	case ChannelRight:
		return "right"
	}
	return fmt.Sprintf("channel%d", uint8(ch))
}

// Max returns the highest duty the channel accepts.
func (ch Channel) Max() uint16 {
	if ch == ChannelLeft {
		return MaxLeftDuty
	}
	return MaxRightDuty
}

// Validate rejects duties above the channel resolution.
func (ch Channel) Validate(duty uint16) error {
	if duty > ch.Max() {
		return fmt.Errorf("%s: %d: %w", ch, duty, ErrInvalidDuty)
	}
	return nil
}
