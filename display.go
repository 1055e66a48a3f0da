package analytics

import (
	"errors"

	"github.com/goliatone/go-analytics/pkg/activity"
	"github.com/goliatone/go-analytics/pkg/content"
	"github.com/goliatone/go-analytics/pkg/display"
	"github.com/goliatone/go-analytics/pkg/props"
	"go.uber.org/zap"
)

// NotificationIfAvailable returns the next content that is not bound to an
// event. It is consumed unless the client runs in test mode.
func (c *Client) NotificationIfAvailable() (content.Content, bool) {
	return c.cache.AvailableContent(c.cfg.TestMode)
}

// ShowNotificationIfAvailable presents the next available content.
func (c *Client) ShowNotificationIfAvailable() {
	c.showGivenOrAvailable(nil, true)
}

// ShowNotificationByID presents the pending content with id.
func (c *Client) ShowNotificationByID(id int64) {
	item, ok := c.cache.ContentByID(id, c.cfg.TestMode)
	if !ok {
		return
	}
	c.showGivenOrAvailable(&item, true)
}

// ShowGivenNotification presents item even when the cache never offered it.
// Nothing is returned to the cache when the item cannot be shown.
func (c *Client) ShowGivenNotification(item content.Content) {
	c.showGivenOrAvailable(&item, false)
}

// ReleaseNotification ends the presentation of inline content once the
// container dismissed it.
func (c *Client) ReleaseNotification(handle display.Handle) bool {
	return c.coordinator.Finish(handle, display.OutcomeShown)
}

// Variants returns the experiment variants of the current results.
func (c *Client) Variants() []props.Value {
	return c.cache.Variants()
}

// showGivenOrAvailable presents given, or the next available content when
// given is nil. fromCache reports that the content was consumed from the
// cache and must be handed back when it loses the display slot.
func (c *Client) showGivenOrAvailable(given *content.Content, fromCache bool) {
	if c.host == nil {
		return
	}
	c.host.RunOnUIThread(func() {
		c.present(given, fromCache)
	})
}

// present runs on the UI thread. At most one proposal is in flight across
// every client sharing the coordinator.
func (c *Client) present(given *content.Content, fromCache bool) {
	if c.coordinator.Pending() {
		c.logger.Debug("content not shown: a proposal is in flight")
		if given != nil {
			c.requeue(*given, fromCache)
		}
		return
	}
	container, ok := c.host.CurrentContainer()
	if !ok {
		if given != nil {
			c.requeue(*given, fromCache)
		}
		return
	}

	var item content.Content
	if given != nil {
		item = *given
	} else if item, ok = c.cache.AvailableContent(c.cfg.TestMode); !ok {
		return
	}
	if item.Kind.FullScreen() && !container.SupportsFullScreen() {
		c.logger.Info("content not shown: full-screen surface unavailable", zap.Int64("content_id", item.ID))
		return
	}

	handle, err := c.coordinator.Propose(display.State{
		Content:        item,
		HighlightColor: container.HighlightColor(),
		DistinctID:     c.DistinctID(),
		Token:          c.token,
	})
	if errors.Is(err, display.ErrBusy) {
		c.logger.Debug("content not shown: lost proposal race", zap.Int64("content_id", item.ID))
		c.requeue(item, fromCache)
		return
	}
	if err != nil || handle <= 0 {
		c.logger.Error("display coordinator in an inconsistent state", zap.Int64("handle", int64(handle)), zap.Error(err))
		return
	}

	stateForDisplay, claimed := c.coordinator.Claim(handle)
	if !claimed {
		c.logger.Error("display proposal could not be claimed", zap.Int64("handle", int64(handle)))
		return
	}

	switch item.Kind {
	case content.KindMini:
		if err := container.ShowInline(handle, stateForDisplay); err != nil {
			c.abandon(handle, item, err)
			return
		}
	case content.KindTakeover:
		if err := container.StartFullScreen(handle, stateForDisplay); err != nil {
			c.abandon(handle, item, err)
			return
		}
		c.coordinator.Finish(handle, display.OutcomeShown)
	default:
		c.logger.Error("unrecognized content kind", zap.String("kind", string(item.Kind)))
		c.coordinator.Finish(handle, display.OutcomeAbandoned)
		return
	}

	if !c.cfg.TestMode {
		c.TrackNotificationSeen(item)
	}
}

// requeue offers item again when it was taken from the cache. Test mode
// never consumes content.
func (c *Client) requeue(item content.Content, fromCache bool) {
	if !fromCache || c.cfg.TestMode {
		return
	}
	c.cache.MarkAsUnseen(item)
}

func (c *Client) abandon(handle display.Handle, item content.Content, err error) {
	c.logger.Warn("content could not be shown", zap.Int64("content_id", item.ID), zap.Error(err))
	c.cache.MarkAsUnseen(item)
	c.coordinator.Finish(handle, display.OutcomeAbandoned)
}

// TrackNotification tracks event with the campaign properties of item
// overridden by properties.
func (c *Client) TrackNotification(event string, item content.Content, properties props.Properties) {
	if c.optedOut.Load() {
		return
	}
	p := item.CampaignProperties()
	p.Merge(properties)
	c.TrackProperties(event, p)
}

// TrackNotificationSeen records item as seen, tracks $campaign_delivery and
// appends the campaign to the profile. The seen id is kept even while
// tracking is opted out.
func (c *Client) TrackNotificationSeen(item content.Content) {
	c.mutateFlags(func(r *FlagsRecord) {
		if !r.seen(item.ID) {
			r.SeenContentIDs = append(r.SeenContentIDs, item.ID)
		}
	})
	if c.optedOut.Load() {
		return
	}

	c.TrackNotification("$campaign_delivery", item, props.Properties{})
	people := c.People().WithIdentity(c.DistinctID())
	if people == nil {
		c.logger.Error("no identity for campaign delivery")
		return
	}
	campaign := item.CampaignProperties()
	campaign.Set("$time", props.String(c.now().UTC().Format(engageTimeLayout)))
	people.Append("$campaigns", props.Int(item.ID))
	people.Append("$notifications", props.Map(campaign))
}

func (c *Client) onDisplayFinished(handle display.Handle, s display.State, outcome display.Outcome) {
	c.logger.Debug("display finished", zap.Int64("handle", int64(handle)), zap.Stringer("outcome", outcome))
	c.emit(activity.BuildDisplayFinishedEvent(activity.DisplayEventInput{
		Token:      c.token,
		DistinctID: s.DistinctID,
		ContentID:  s.Content.ID,
		Kind:       string(s.Content.Kind),
		Handle:     int64(handle),
		Outcome:    outcome.String(),
	}))
}
