package rcard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mdouchement/logger"
)

// A Monitor publishes the motor state as server-sent events on a unix socket.
// It only observes the controller and never feeds commands back.
type Monitor struct {
	events   chan event
	done     chan struct{}
	listener net.Listener
	server   *http.Server
}

func NewMonitor(socket string) (*Monitor, error) {
	m := &Monitor{
		events: make(chan event, 10),
		done:   make(chan struct{}),
	}

	err := os.MkdirAll(filepath.Dir(socket), 0o755)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if _, err := os.Stat(socket); err == nil {
		fmt.Printf("Removing existing %s\n", socket)
		os.Remove(socket)
	}
	m.listener, err = net.Listen("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	return m, nil
}

func (m *Monitor) Addr() string {
	return m.listener.Addr().String()
}

// Observe records s as the latest state. States are dropped while the event queue is full.
func (m *Monitor) Observe(s MotorState) {
	select {
	case m.events <- event{name: eventUpdateState, state: s}:
	case <-m.done:
	default:
	}
}

func (m *Monitor) Launch(ctx context.Context) {
	log := logger.LogWith(ctx)

	go m.eventLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/monitor", m.monitor(log))
	m.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		log.Info("Starting HTTP server on", m.Addr())
		err := m.server.Serve(m.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Could not serve HTTP")
		}
	}()

	go func() {
		<-ctx.Done()
		close(m.done)

		if err := m.server.Close(); err != nil {
			log.WithError(err).Error("Could not close socket listener")
		}
		if err := os.Remove(m.Addr()); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).Errorf("Could not remove socket %s", m.Addr())
		}
	}()
}

func (m *Monitor) eventLoop(ctx context.Context) {
	log := logger.LogWith(ctx)
	watchers := map[string]chan<- []byte{}
	var state *MotorState

	refresh := func() {
		if state == nil {
			return
		}

		payload, err := json.Marshal(state)
		if err != nil {
			log.WithError(err).Error("Could not serialize state") // Should never happen
			return
		}

		for _, watcher := range watchers {
			select {
			case watcher <- payload:
			default: // Slow client, it will get the next state.
			}
		}
	}

	for {
		select {
		case <-m.done:
			for id, watcher := range watchers {
				close(watcher)
				delete(watchers, id)
			}
			return
		case e := <-m.events:
			switch e.name {
			case eventUpdateState:
				state = &e.state
				refresh()
			case eventWatch:
				watchers[e.monitorID] = e.monitor
				refresh()
			case eventUnwatch:
				if watcher, ok := watchers[e.monitorID]; ok {
					close(watcher)
					delete(watchers, e.monitorID)
				}
			}
		}
	}
}

func (m *Monitor) send(e event) bool {
	select {
	case m.events <- e:
		return true
	case <-m.done:
		return false
	}
}

func (m *Monitor) monitor(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Client connected")

		// Set http headers required for SSE.
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		id := uuid.NewString()
		ch := make(chan []byte, 20)
		if !m.send(event{name: eventWatch, monitorID: id, monitor: ch}) {
			return
		}

		rc := http.NewResponseController(w)
		for {
			select {
			case <-r.Context().Done():
				log.Info("Client disconnected")
				m.send(event{name: eventUnwatch, monitorID: id})
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}

				_, err := w.Write(WriteSSE(payload))
				if err != nil {
					log.WithError(err).Error("Could not write monitor SSE payload")
					m.send(event{name: eventUnwatch, monitorID: id})
					return
				}

				err = rc.Flush()
				if err != nil {
					log.WithError(err).Error("Could not flush monitor SSE payload")
					m.send(event{name: eventUnwatch, monitorID: id})
					return
				}
			}
		}
	}
}
