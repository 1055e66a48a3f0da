package trigger

import (
	"time"

	"github.com/goliatone/go-analytics/pkg/props"
)

// Input is the event a selector is evaluated against.
type Input struct {
	Event      string
	Properties props.Properties
	Time       time.Time
}

func (in Input) withDefaults() Input {
	if in.Time.IsZero() {
		in.Time = time.Now()
	}
	return in
}

func (in Input) bindings() map[string]any {
	return map[string]any{
		"event":      in.Event,
		"properties": in.Properties.ToMap(),
		"event_time": in.Time,
	}
}
