// Package screen holds the controllers behind the map, details and
// reservations screens. Each controller is initialised explicitly and
// exposes its data as a State instead of relying on render side effects.
package screen

import (
	"github.com/goccy/go-json"
)

type Status int

const (
	Idle Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// State is the result of a controller's last load.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

func (s State[T]) Ready() bool { return s.Status == Ready }

func ready[T any](data T) State[T] {
	return State[T]{Status: Ready, Data: data}
}

func failed[T any](data T, err error) State[T] {
	return State[T]{Status: Failed, Data: data, Err: err}
}
