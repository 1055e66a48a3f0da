package layering

import "github.com/goliatone/go-analytics/pkg/props"

// Result is the outcome of a merge: the composed properties and, for every
// key, the level that supplied it.
type Result struct {
	Properties props.Properties
	Provenance map[string]Level
}

// Source reports which level supplied key, LevelUnknown when none did.
func (r Result) Source(key string) Level {
	if r.Provenance == nil {
		return LevelUnknown
	}
	return r.Provenance[key]
}

// Merge composes layers so that stronger levels win per key. Keys appear in
// the order the strongest layer providing them lists them, stronger layers
// first.
func Merge(layers ...Layer) Result {
	result := Result{Provenance: map[string]Level{}}

	for _, layer := range ordered(layers) {
		layer.Properties.Range(func(key string, value props.Value) bool {
			if layer.SkipNulls && value.IsNull() {
				return true
			}
			if result.Properties.SetOnce(key, value) {
				result.Provenance[key] = layer.Level
			}
			return true
		})
	}
	return result
}
