package content

import (
	"fmt"

	"github.com/goliatone/go-analytics/pkg/props"
)

// Kind is the presentation style of a piece of in-app content.
type Kind string

const (
	// KindMini renders inline inside the current container.
	KindMini Kind = "mini"
	// KindTakeover is handed off to a full-screen surface.
	KindTakeover Kind = "takeover"
)

// FullScreen reports whether the kind needs a full-screen surface.
func (k Kind) FullScreen() bool {
	return k == KindTakeover
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindMini || k == KindTakeover
}

// Trigger makes content eligible when a tracked event matches. An empty
// Selector matches every event with the trigger's name.
type Trigger struct {
	Event    string `json:"event"`
	Selector string `json:"selector,omitempty"`
}

// Content is one in-app message delivered by the remote results endpoint.
type Content struct {
	ID        int64            `json:"id"`
	MessageID int64            `json:"message_id"`
	Kind      Kind             `json:"type"`
	Title     string           `json:"title,omitempty"`
	Body      string           `json:"body,omitempty"`
	Triggers  []Trigger        `json:"display_triggers,omitempty"`
	Extras    props.Properties `json:"extras"`
}

// EventTriggered reports whether c is only shown in response to events.
func (c Content) EventTriggered() bool {
	return len(c.Triggers) > 0
}

// CampaignProperties returns the properties attached to campaign tracking
// events for c.
func (c Content) CampaignProperties() props.Properties {
	var out props.Properties
	out.Set("campaign_id", props.Int(c.ID))
	out.Set("message_id", props.Int(c.MessageID))
	out.Set("message_type", props.String("inapp"))
	out.Set("message_subtype", props.String(string(c.Kind)))
	return out
}

func (c Content) String() string {
	return fmt.Sprintf("%s#%d", c.Kind, c.ID)
}
