package analytics

import (
	"github.com/goliatone/go-analytics/pkg/props"
	"go.uber.org/zap"
)

func (c *Client) loadSuperProperties() {
	c.superMu.Lock()
	defer c.superMu.Unlock()
	p, _, _, err := c.storage.Properties.Load(c.ctx, tokenRef(c.token, domainSuper))
	if err != nil {
		c.logger.Warn("super properties not loaded", zap.Error(err))
		return
	}
	c.super = p
}

func (c *Client) mutateSuper(fn func(*props.Properties)) {
	c.superMu.Lock()
	defer c.superMu.Unlock()
	mutate(c, c.storage.Properties, tokenRef(c.token, domainSuper), &c.super, fn)
}

// SuperProperties returns a copy of the properties merged into every event.
func (c *Client) SuperProperties() props.Properties {
	c.superMu.Lock()
	defer c.superMu.Unlock()
	return c.super.Clone()
}

// RegisterSuperProperties upserts properties.
func (c *Client) RegisterSuperProperties(properties props.Properties) {
	if c.optedOut.Load() {
		return
	}
	c.mutateSuper(func(p *props.Properties) {
		p.Merge(properties)
	})
}

// RegisterSuperPropertiesMap converts properties with props.FromMap and
// upserts them. Nothing is registered when a value cannot be represented.
func (c *Client) RegisterSuperPropertiesMap(properties map[string]any) {
	if c.optedOut.Load() {
		return
	}
	p, err := props.FromMap(properties)
	if err != nil {
		c.logger.Warn("super properties dropped", zap.Error(err))
		return
	}
	c.RegisterSuperProperties(p)
}

// RegisterSuperPropertiesOnce adds the keys that are not registered yet.
func (c *Client) RegisterSuperPropertiesOnce(properties props.Properties) {
	if c.optedOut.Load() {
		return
	}
	c.mutateSuper(func(p *props.Properties) {
		p.MergeMissing(properties)
	})
}

// RegisterSuperPropertiesOnceMap is RegisterSuperPropertiesOnce for a plain
// map.
func (c *Client) RegisterSuperPropertiesOnceMap(properties map[string]any) {
	if c.optedOut.Load() {
		return
	}
	p, err := props.FromMap(properties)
	if err != nil {
		c.logger.Warn("super properties dropped", zap.Error(err))
		return
	}
	c.RegisterSuperPropertiesOnce(p)
}

// UnregisterSuperProperty removes name from the super properties.
func (c *Client) UnregisterSuperProperty(name string) {
	if c.optedOut.Load() {
		return
	}
	c.mutateSuper(func(p *props.Properties) {
		p.Delete(name)
	})
}

// ClearSuperProperties removes every super property. Referrer properties
// are kept.
func (c *Client) ClearSuperProperties() {
	if c.optedOut.Load() {
		return
	}
	c.mutateSuper(func(p *props.Properties) {
		*p = props.Properties{}
	})
}

// UpdateSuperProperties replaces the super properties with fn's result.
// fn receives a copy and runs under the super properties lock, so
// concurrent updates never interleave. fn runs again when another client
// sharing the storage saved in between.
func (c *Client) UpdateSuperProperties(fn func(props.Properties) props.Properties) {
	if c.optedOut.Load() || fn == nil {
		return
	}
	c.mutateSuper(func(p *props.Properties) {
		*p = fn(p.Clone())
	})
}
