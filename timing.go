package analytics

import "go.uber.org/zap"

func (c *Client) loadTimings() {
	c.timingsMu.Lock()
	defer c.timingsMu.Unlock()
	timings, _, _, err := c.storage.Timings.Load(c.ctx, tokenRef(c.token, domainTimings))
	if err != nil {
		c.logger.Warn("timed events not loaded", zap.Error(err))
	}
	if timings == nil {
		timings = Timings{}
	}
	c.timings = timings
}

func (c *Client) mutateTimingsLocked(fn func(*Timings)) {
	mutate(c, c.storage.Timings, tokenRef(c.token, domainTimings), &c.timings, func(t *Timings) {
		if *t == nil {
			*t = Timings{}
		}
		fn(t)
	})
}

// TimeEvent starts a timer for event. The next tracked event with that name
// carries $duration, the elapsed seconds.
func (c *Client) TimeEvent(event string) {
	if c.optedOut.Load() {
		return
	}
	start := c.now().UnixMilli()
	c.timingsMu.Lock()
	defer c.timingsMu.Unlock()
	c.mutateTimingsLocked(func(t *Timings) {
		(*t)[event] = start
	})
}

// EventElapsedTime returns the seconds since TimeEvent(event), or 0 when no
// timer is running. The timer keeps running.
func (c *Client) EventElapsedTime(event string) float64 {
	now := c.now()
	c.timingsMu.Lock()
	start, ok := c.timings[event]
	c.timingsMu.Unlock()
	if !ok {
		return 0
	}
	return durationSeconds(start, now)
}

func (c *Client) popTiming(event string) (int64, bool) {
	c.timingsMu.Lock()
	defer c.timingsMu.Unlock()
	start, ok := c.timings[event]
	if !ok {
		return 0, false
	}
	c.mutateTimingsLocked(func(t *Timings) {
		delete(*t, event)
	})
	return start, true
}

func (c *Client) clearTimings() {
	c.timingsMu.Lock()
	defer c.timingsMu.Unlock()
	c.mutateTimingsLocked(func(t *Timings) {
		*t = Timings{}
	})
}
