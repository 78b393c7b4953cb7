package rcard

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/rcard/rcar"
)

var ErrDetached = errors.New("no transport attached")

// A Controller owns the MotorState and maps each received command byte onto
// the hardware, then acknowledges it over the transport.
// It is not safe for concurrent use: every method runs on the dispatch loop.
type Controller struct {
	hw        HardwareIO
	transport Transport
	table     []rcar.Motion
	stop      rcar.Motion
	state     MotorState
	onChange  func(MotorState)
	log       logger.Logger
}

func New(cfg Config, hw HardwareIO) *Controller {
	c := &Controller{
		hw:    hw,
		table: cfg.Motions(),
	}
	c.stop, _ = rcar.Lookup(c.table, byte(rcar.CommandStop))
	c.state = stateOf(c.stop)

	return c
}

func (c *Controller) SetLogger(l logger.Logger) {
	c.log = l
}

// Attach sets the transport used by Step and HandleCommand, replacing any previous one.
func (c *Controller) Attach(t Transport) {
	c.transport = t
}

// OnChange registers fn to be called with every committed state.
// fn runs on the dispatch loop and must not block.
func (c *Controller) OnChange(fn func(MotorState)) {
	c.onChange = fn
}

func (c *Controller) State() MotorState {
	return c.state
}

// Initialize drives the outputs to the stop state without acknowledgement.
// It is also the safe state applied after a link failure.
func (c *Controller) Initialize() error {
	if err := c.apply(c.stop); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	return nil
}

// HandleCommand dispatches one received byte. Unknown bytes are ignored.
func (c *Controller) HandleCommand(b byte) error {
	m, ok := rcar.Lookup(c.table, b)
	if !ok {
		if c.log != nil {
			c.log.Debugf("Ignoring byte %q", b)
		}
		return nil
	}

	if c.transport == nil {
		return ErrDetached
	}

	if err := c.apply(m); err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}

	if c.log != nil {
		c.log.Debugf("Command %q: %s - left %d - right %d - direction %s", b, m.Name, m.LeftDuty, m.RightDuty, m.Direction)
	}

	return c.transport.SendString([]byte(m.Ack))
}

// Step waits for exactly one byte and dispatches it.
func (c *Controller) Step() error {
	if c.transport == nil {
		return ErrDetached
	}

	b, err := c.transport.ReceiveByte()
	if err != nil {
		return err
	}

	return c.HandleCommand(b)
}

// Run dispatches commands until a step fails or ctx is done.
// A byte already being waited for is not interrupted by ctx; close the transport for that.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.Step(); err != nil {
			return err
		}
	}
}

// apply writes every output of m then commits it as the current state.
func (c *Controller) apply(m rcar.Motion) error {
	if err := c.hw.SetPWMDuty(rcar.ChannelLeft, m.LeftDuty); err != nil {
		return err
	}
	if err := c.hw.SetPWMDuty(rcar.ChannelRight, m.RightDuty); err != nil {
		return err
	}
	if err := c.hw.SetDirectionBits(m.Direction); err != nil {
		return err
	}
	if err := c.hw.SetIndicatorBits(m.Indicator); err != nil {
		return err
	}

	c.state = stateOf(m)
	if c.onChange != nil {
		c.onChange(c.state)
	}

	return nil
}
