package layering

import (
	"slices"

	"github.com/goliatone/go-analytics/pkg/props"
)

// Level identifies the precedence of a property layer. Higher levels override
// lower levels when merging.
type Level int

const (
	// LevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	LevelUnknown Level = iota
	// LevelReferrer is the weakest layer (install referrer attribution).
	LevelReferrer
	// LevelSuper holds registered super properties.
	LevelSuper
	// LevelReserved holds properties the SDK computes per event.
	LevelReserved
	// LevelCaller is the strongest layer, supplied with the tracking call.
	LevelCaller
)

func (l Level) String() string {
	switch l {
	case LevelReferrer:
		return "referrer"
	case LevelSuper:
		return "super"
	case LevelReserved:
		return "reserved"
	case LevelCaller:
		return "caller"
	default:
		return "unknown"
	}
}

// Layer is one named set of properties taking part in a merge.
type Layer struct {
	Level      Level
	Properties props.Properties
	// SkipNulls drops null values so weaker layers can supply the key.
	SkipNulls bool
}

// ordered drops layers with an unknown level and sorts the rest from
// strongest to weakest, keeping the relative order of peers.
func ordered(layers []Layer) []Layer {
	filtered := make([]Layer, 0, len(layers))
	for _, layer := range layers {
		if layer.Level == LevelUnknown {
			continue
		}
		filtered = append(filtered, layer)
	}

	slices.SortStableFunc(filtered, func(a, b Layer) int {
		if a.Level == b.Level {
			return 0
		}
		if a.Level > b.Level {
			return -1
		}
		return 1
	})
	return filtered
}
