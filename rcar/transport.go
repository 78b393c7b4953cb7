package rcar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mdouchement/logger"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var (
	ErrNotFound           = errors.New("device not found/plugged")
	ErrNotInitialized     = errors.New("transport not initialized")
	ErrAlreadyInitialized = errors.New("transport already initialized")
)

// A TransportError is returned when the link fails under a send or a receive.
type TransportError struct {
	Op   string
	Port string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Port is the byte channel under a Transport. serial.Port satisfies it.
type Port interface {
	io.ReadWriteCloser
}

type moder interface {
	SetMode(mode *serial.Mode) error
}

type resetter interface {
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

type drainer interface {
	Drain() error
}

// Transport is a blocking, unbuffered byte channel to the remote operator.
type Transport struct {
	pname       string
	port        Port
	log         logger.Logger
	initialized bool
	rbuf        [1]byte
	wbuf        [1]byte
}

// OpenAuto opens the first serial adapter matching vid and pid.
func OpenAuto(vid, pid string, readTimeout time.Duration) (*Transport, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	for _, p := range ports {
		if p.IsUSB && strings.EqualFold(p.VID, vid) && strings.EqualFold(p.PID, pid) {
			return Open(p.Name, readTimeout)
		}
	}

	return nil, ErrNotFound
}

// Open opens the named serial port. The returned Transport must be initialized before use.
func Open(name string, readTimeout time.Duration) (*Transport, error) {
	mode, err := DefaultSerialConfig().Mode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	if readTimeout > 0 {
		if err = port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, err
		}
	}

	return NewTransport(name, port), nil
}

// NewTransport wraps an already opened port.
func NewTransport(name string, port Port) *Transport {
	return &Transport{
		pname: name,
		port:  port,
	}
}

func (t *Transport) SetLogger(l logger.Logger) {
	t.log = l
}

func (t *Transport) Port() string {
	return t.pname
}

// Initialize applies the line configuration and enables the link.
// It must be called exactly once.
func (t *Transport) Initialize(cfg SerialConfig) error {
	if t.initialized {
		return ErrAlreadyInitialized
	}

	cfg, err := cfg.Normalize()
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	mode, err := cfg.Mode()
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if p, ok := t.port.(moder); ok {
		if err = p.SetMode(mode); err != nil {
			return &TransportError{Op: "initialize", Port: t.pname, Err: err}
		}
	}

	if p, ok := t.port.(resetter); ok {
		if err = p.ResetInputBuffer(); err != nil {
			return &TransportError{Op: "initialize", Port: t.pname, Err: err}
		}
		if err = p.ResetOutputBuffer(); err != nil {
			return &TransportError{Op: "initialize", Port: t.pname, Err: err}
		}
	}

	if t.log != nil {
		t.log.Infof("Serial link %s enabled at %d baud %d%s%d", t.pname, mode.BaudRate, mode.DataBits, cfg.Parity, cfg.StopBits)
	}

	t.initialized = true
	return nil
}

// ReceiveByte blocks until one byte is available.
// Read timeouts of the underlying port are absorbed; only failures are returned.
func (t *Transport) ReceiveByte() (byte, error) {
	if !t.initialized {
		return 0, ErrNotInitialized
	}

	for {
		n, err := t.port.Read(t.rbuf[:])
		if err != nil {
			return 0, &TransportError{Op: "receive", Port: t.pname, Err: err}
		}

		if n == 1 {
			return t.rbuf[0], nil
		}
	}
}

// SendByte blocks until b is handed to the line.
func (t *Transport) SendByte(b byte) error {
	if !t.initialized {
		return ErrNotInitialized
	}

	t.wbuf[0] = b
	for {
		n, err := t.port.Write(t.wbuf[:])
		if err != nil {
			return &TransportError{Op: "send", Port: t.pname, Err: err}
		}

		if n == 1 {
			return nil
		}
	}
}

// SendString sends every byte of s in order and waits for the line to drain.
func (t *Transport) SendString(s []byte) error {
	for _, b := range s {
		if err := t.SendByte(b); err != nil {
			return err
		}
	}

	if p, ok := t.port.(drainer); ok {
		if err := p.Drain(); err != nil {
			return &TransportError{Op: "send", Port: t.pname, Err: err}
		}
	}

	return nil
}

func (t *Transport) Close() error {
	if p, ok := t.port.(resetter); ok && t.initialized {
		// Best effort, the port may already be gone.
		p.ResetOutputBuffer()
	}

	return t.port.Close()
}
