package rcard

import (
	"sync"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/rcard/rcar"
)

const (
	OpSetPWMDuty       = "set-pwm-duty"
	OpSetDirectionBits = "set-direction-bits"
	OpSetIndicatorBits = "set-indicator-bits"
)

// HardwareCall is one output write seen by a DummyHardware.
type HardwareCall struct {
	Op      string
	Channel rcar.Channel
	Value   uint16
}

// A DummyHardware should only be used for dev & tests.
// It keeps the output registers in memory and records every write.
type DummyHardware struct {
	sync      sync.Mutex
	duties    map[rcar.Channel]uint16
	direction rcar.Direction
	indicator rcar.Indicator
	calls     []HardwareCall
	failures  map[string]error
	log       logger.Logger
}

func NewDummyHardware() *DummyHardware {
	return &DummyHardware{
		duties: map[rcar.Channel]uint16{
			rcar.ChannelLeft:  0,
			rcar.ChannelRight: 0,
		},
		failures: make(map[string]error),
	}
}

func (h *DummyHardware) SetLogger(l logger.Logger) {
	h.log = l
}

// Fail makes every later op return err. A nil err clears it.
func (h *DummyHardware) Fail(op string, err error) {
	h.sync.Lock()
	defer h.sync.Unlock()

	if err == nil {
		delete(h.failures, op)
		return
	}
	h.failures[op] = err
}

func (h *DummyHardware) SetPWMDuty(ch rcar.Channel, duty uint16) error {
	h.sync.Lock()
	defer h.sync.Unlock()

	if err := h.failures[OpSetPWMDuty]; err != nil {
		return err
	}
	if err := ch.Validate(duty); err != nil {
		return err
	}

	h.calls = append(h.calls, HardwareCall{Op: OpSetPWMDuty, Channel: ch, Value: duty})
	h.duties[ch] = duty
	if h.log != nil {
		h.log.Debugf("[dummy] pwm %s = %d", ch, duty)
	}
	return nil
}

func (h *DummyHardware) SetDirectionBits(mask rcar.Direction) error {
	h.sync.Lock()
	defer h.sync.Unlock()

	if err := h.failures[OpSetDirectionBits]; err != nil {
		return err
	}

	h.calls = append(h.calls, HardwareCall{Op: OpSetDirectionBits, Value: uint16(mask)})
	h.direction = mask
	if h.log != nil {
		h.log.Debugf("[dummy] direction = %s", mask)
	}
	return nil
}

func (h *DummyHardware) SetIndicatorBits(mask rcar.Indicator) error {
	h.sync.Lock()
	defer h.sync.Unlock()

	if err := h.failures[OpSetIndicatorBits]; err != nil {
		return err
	}

	h.calls = append(h.calls, HardwareCall{Op: OpSetIndicatorBits, Value: uint16(mask)})
	h.indicator = mask
	return nil
}

// Outputs returns the current content of the output registers.
func (h *DummyHardware) Outputs() (left, right uint16, direction rcar.Direction, indicator rcar.Indicator) {
	h.sync.Lock()
	defer h.sync.Unlock()

	return h.duties[rcar.ChannelLeft], h.duties[rcar.ChannelRight], h.direction, h.indicator
}

// Calls returns and forgets the recorded writes.
func (h *DummyHardware) Calls() []HardwareCall {
	h.sync.Lock()
	defer h.sync.Unlock()

	calls := h.calls
	h.calls = nil
	return calls
}

func (h *DummyHardware) Close() error {
	return nil
}
