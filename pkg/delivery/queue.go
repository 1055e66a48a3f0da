package delivery

import (
	"context"

	"go.uber.org/zap"
)

// Queue receives outbound messages. Implementations must be safe for
// concurrent use and must not block callers on network I/O.
type Queue interface {
	EnqueueEvent(ctx context.Context, event EventEnvelope)
	EnqueueProfileUpdate(ctx context.Context, update ProfileUpdate)
	EnqueueGroupUpdate(ctx context.Context, update GroupUpdate)
	// EnqueuePendingProfileMerge attaches distinctID to the anonymous
	// profile updates queued for token.
	EnqueuePendingProfileMerge(ctx context.Context, token, distinctID string)
	// ClearAnonymousUpdates drops anonymous profile updates queued for token.
	ClearAnonymousUpdates(ctx context.Context, token string)
	PurgeQueues(ctx context.Context, token string)
	Flush(ctx context.Context, token string)
}

// Discard is a Queue that drops everything.
var Discard Queue = discard{}

type discard struct{}

func (discard) EnqueueEvent(context.Context, EventEnvelope) {}
func (discard) EnqueueProfileUpdate(context.Context, ProfileUpdate) {}
func (discard) EnqueueGroupUpdate(context.Context, GroupUpdate) {}
func (discard) EnqueuePendingProfileMerge(context.Context, string, string) {}
func (discard) ClearAnonymousUpdates(context.Context, string) {}
func (discard) PurgeQueues(context.Context, string) {}
func (discard) Flush(context.Context, string) {}

// WithLogging decorates next so every call is logged at debug level.
func WithLogging(next Queue, logger *zap.Logger) Queue {
	if next == nil {
		next = Discard
	}
	if logger == nil {
		return next
	}
	return &loggedQueue{next: next, logger: logger.Named("delivery")}
}

type loggedQueue struct {
	next   Queue
	logger *zap.Logger
}

func (q *loggedQueue) EnqueueEvent(ctx context.Context, event EventEnvelope) {
	q.logger.Debug("enqueue event",
		zap.String("token", event.Token),
		zap.String("event", event.Event),
		zap.Bool("automatic", event.Automatic),
		zap.Int("properties", event.Properties.Len()),
	)
	q.next.EnqueueEvent(ctx, event)
}

func (q *loggedQueue) EnqueueProfileUpdate(ctx context.Context, update ProfileUpdate) {
	q.logger.Debug("enqueue profile update",
		zap.String("token", update.Token),
		zap.String("action", update.Action),
		zap.Bool("anonymous", update.Anonymous),
	)
	q.next.EnqueueProfileUpdate(ctx, update)
}

func (q *loggedQueue) EnqueueGroupUpdate(ctx context.Context, update GroupUpdate) {
	q.logger.Debug("enqueue group update",
		zap.String("token", update.Token),
		zap.String("group_key", update.GroupKey),
		zap.String("action", update.Action),
	)
	q.next.EnqueueGroupUpdate(ctx, update)
}

func (q *loggedQueue) EnqueuePendingProfileMerge(ctx context.Context, token, distinctID string) {
	q.logger.Debug("enqueue pending profile merge", zap.String("token", token), zap.String("distinct_id", distinctID))
	q.next.EnqueuePendingProfileMerge(ctx, token, distinctID)
}

func (q *loggedQueue) ClearAnonymousUpdates(ctx context.Context, token string) {
	q.logger.Debug("clear anonymous updates", zap.String("token", token))
	q.next.ClearAnonymousUpdates(ctx, token)
}

func (q *loggedQueue) PurgeQueues(ctx context.Context, token string) {
	q.logger.Debug("purge queues", zap.String("token", token))
	q.next.PurgeQueues(ctx, token)
}

func (q *loggedQueue) Flush(ctx context.Context, token string) {
	q.logger.Debug("flush", zap.String("token", token))
	q.next.Flush(ctx, token)
}
