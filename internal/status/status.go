// Package status defines the job status snapshot returned by the progress endpoint.
package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Status is the discrete state reported for a job.
type Status string

const (
	Submitted  Status = "submitted"
	Processing Status = "processing"
	Error      Status = "error"
	Complete   Status = "complete"
)

// ErrMissingStatus is returned when a response carries no status field.
var ErrMissingStatus = errors.New("status field missing")

// ErrUnknownStatus marks a status value outside the known set.
var ErrUnknownStatus = errors.New("unknown status")

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case Submitted, Processing, Error, Complete:
		return true
	}
	return false
}

// Terminal reports whether polling should stop after observing s.
func (s Status) Terminal() bool {
	return s == Complete || s == Error
}

// Queue is a queue position. The server reports either a number or a
// capped string such as "11 or more", so it is kept as display text.
type Queue string

// UnmarshalJSON accepts a JSON number, a JSON string, or null.
func (q *Queue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode queue: %w", err)
		}
		*q = Queue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode queue: %w", err)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("decode queue: %w", err)
	}
	*q = Queue(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func (q Queue) String() string { return string(q) }

// Snapshot is one poll response. Only the field that belongs to Status is
// meaningful: Queue for submitted, PC for processing, Message for error.
type Snapshot struct {
	Status  Status  `json:"status"`
	Queue   Queue   `json:"queue,omitempty"`
	PC      float64 `json:"pc,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Check returns ErrUnknownStatus, wrapped with the offending value, when
// Status is outside the known set.
func (s Snapshot) Check() error {
	if !s.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, string(s.Status))
	}
	return nil
}

// Percent returns the progress percentage rounded for display.
func (s Snapshot) Percent() float64 {
	return RoundPercent(s.PC)
}

// Decode parses a status response body. Both plain JSON and a JSONP
// wrapper of the form name({...}); are accepted.
func Decode(body []byte) (Snapshot, error) {
	payload := UnwrapJSONP(body)

	var raw struct {
		Status  *Status         `json:"status"`
		Queue   json.RawMessage `json:"queue"`
		PC      json.RawMessage `json:"pc"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if raw.Status == nil {
		return Snapshot{}, ErrMissingStatus
	}

	snap := Snapshot{Status: *raw.Status}

	// Only the field that belongs to the status is read; the others may
	// hold anything.
	switch snap.Status {
	case Submitted:
		if present(raw.Queue) {
			if err := json.Unmarshal(raw.Queue, &snap.Queue); err != nil {
				return Snapshot{}, err
			}
		}
	case Processing:
		pc, err := parsePC(raw.PC)
		if err != nil {
			return Snapshot{}, err
		}
		snap.PC = pc
	case Error:
		if present(raw.Message) {
			if err := json.Unmarshal(raw.Message, &snap.Message); err != nil {
				return Snapshot{}, fmt.Errorf("decode message: %w", err)
			}
		}
	}

	return snap, nil
}

func present(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && !bytes.Equal(data, []byte("null"))
}

// parsePC reads a percentage sent as a number or a numeric string.
func parsePC(data json.RawMessage) (float64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, fmt.Errorf("decode pc: %w", err)
		}
		data = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, fmt.Errorf("decode pc: %w", err)
	}
	return f, nil
}

// UnwrapJSONP strips a callback(...) wrapper if one is present and returns
// the enclosed payload. Plain JSON is returned unchanged.
func UnwrapJSONP(body []byte) []byte {
	b := bytes.TrimSpace(body)
	if len(b) == 0 || b[0] == '{' || b[0] == '[' {
		return b
	}

	open := bytes.IndexByte(b, '(')
	if open <= 0 || !isCallbackName(b[:open]) {
		return b
	}

	end := bytes.TrimRight(b, "; \t\r\n")
	if len(end) == 0 || end[len(end)-1] != ')' {
		return b
	}
	return bytes.TrimSpace(end[open+1 : len(end)-1])
}

func isCallbackName(name []byte) bool {
	name = bytes.TrimSpace(name)
	if len(name) == 0 {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '$', c == '.':
		default:
			return false
		}
	}
	return true
}

// RoundPercent rounds to one decimal place, halves rounding up.
func RoundPercent(pc float64) float64 {
	if math.IsNaN(pc) || math.IsInf(pc, 0) {
		return pc
	}
	return math.Floor(pc*10+0.5) / 10
}

// FormatPercent renders a rounded percentage without trailing zeros:
// 42.37 becomes "42.4" and 100.0 becomes "100".
func FormatPercent(pc float64) string {
	return strconv.FormatFloat(RoundPercent(pc), 'f', -1, 64)
}
