// Package display owns the process-wide single-flight state machine that
// decides whether in-app content may be presented, plus the contracts the
// host application implements to render it.
//
// A proposal moves through
//
//	Proposed -> Claimed -> finished (Shown | Abandoned | Superseded)
//
// and at most one proposal exists at any time.
package display
