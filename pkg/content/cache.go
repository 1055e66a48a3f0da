package content

import (
	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/trigger"
)

// Cache holds the remote results for the current distinct id. Getters that
// return content consume it unless testMode is set.
type Cache interface {
	AvailableContent(testMode bool) (Content, bool)
	ContentByID(id int64, testMode bool) (Content, bool)
	ContentForEvent(event trigger.Input, testMode bool) (Content, bool)
	MarkAsUnseen(c Content)
	HasUpdatesAvailable() bool
	Variants() []props.Value
	SetDistinctID(distinctID string)
	ShouldTrackAutomaticEvents() bool
}

// ResultsNotifier is implemented by caches that can report newly arrived
// results.
type ResultsNotifier interface {
	SetResultsListener(fn func())
}
