package rcard

import "github.com/mdouchement/rcard/rcar"

// HardwareIO is the output side of the vehicle: two PWM generators plus the
// direction and indicator lines of the motor driver.
type HardwareIO interface {
	SetPWMDuty(ch rcar.Channel, duty uint16) error
	SetDirectionBits(mask rcar.Direction) error
	SetIndicatorBits(mask rcar.Indicator) error
}

// Transport is the blocking byte channel to the remote operator.
type Transport interface {
	ReceiveByte() (byte, error)
	SendString(s []byte) error
}

// MotorState is the last applied motion. It is replaced as a whole on each dispatch.
type MotorState struct {
	Command   rcar.Command   `json:"command"`
	Motion    string         `json:"motion"`
	LeftDuty  uint16         `json:"left_duty"`
	RightDuty uint16         `json:"right_duty"`
	Direction rcar.Direction `json:"direction"`
	Indicator rcar.Indicator `json:"indicator"`
}

func stateOf(m rcar.Motion) MotorState {
	return MotorState{
		Command:   m.Command,
		Motion:    m.Name,
		LeftDuty:  m.LeftDuty,
		RightDuty: m.RightDuty,
		Direction: m.Direction,
		Indicator: m.Indicator,
	}
}

// Stopped reports whether s is the reset state.
func (s MotorState) Stopped() bool {
	return s.LeftDuty == 0 && s.RightDuty == 0 && s.Direction == rcar.DirectionStop && s.Indicator == rcar.IndicatorOff
}

func ToPtr[T any](v T) *T {
	return &v
}

const (
	eventUpdateState = "update-state"
	eventWatch       = "watch"
	eventUnwatch     = "unwatch"
)

type event struct {
	name      string
	state     MotorState
	monitorID string
	monitor   chan<- []byte
}
