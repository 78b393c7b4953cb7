package rcard

import (
	"bufio"
	"bytes"
)

var ssePrefix = []byte("data: ")

// ReadSSE returns the data of the next server-sent event from r.
func ReadSSE(r *bufio.Reader) ([]byte, error) {
	var data []byte
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return data, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if len(data) == 0 {
				continue // Stray separator
			}
			return data, nil
		}

		if payload, ok := bytes.CutPrefix(line, ssePrefix); ok {
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, payload...)
		}
	}
}

// WriteSSE frames payload as a single-line server-sent event.
func WriteSSE(payload []byte) []byte {
	event := make([]byte, 0, len(ssePrefix)+len(payload)+2)
	event = append(event, ssePrefix...)
	event = append(event, payload...)
	return append(event, '\n', '\n')
}
