// Package trigger evaluates display-trigger selectors attached to in-app
// content against tracked events.
//
// A selector is a boolean expression over three bindings:
//
//	event       the tracked event name
//	properties  the final event properties (map)
//	event_time  the tracking timestamp
//
// Three engines are available: expr (default), CEL and JavaScript. The
// JavaScript engine requires the `js_eval` build tag.
package trigger
