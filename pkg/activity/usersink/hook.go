package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-analytics/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts analytics activity events to a go-users ActivitySink. Distinct
// ids that are not UUIDs (identified users) are kept in Data so no identity
// is lost in the mapping.
type Hook struct {
	Sink usertypes.ActivitySink
	// TenantID is stamped on every record; the project token is not a UUID.
	TenantID uuid.UUID
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   h.TenantID,
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       cloneMap(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	if normalized.Token != "" {
		record.Data = ensureData(record.Data)
		record.Data["token"] = normalized.Token
	}
	if normalized.ActorID != "" && record.ActorID == uuid.Nil {
		record.Data = ensureData(record.Data)
		record.Data["distinct_id"] = normalized.ActorID
	}
	if normalized.UserID != "" && record.UserID == uuid.Nil {
		record.Data = ensureData(record.Data)
		record.Data["user_id"] = normalized.UserID
	}

	return h.Sink.Log(ctx, record)
}

func parseUUID(input string) uuid.UUID {
	value := strings.TrimSpace(input)
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func ensureData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
