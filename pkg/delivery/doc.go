// Package delivery describes the outbound message queue the analytics core
// hands events, profile updates and group updates to. Delivery is
// fire-and-forget: queue failures are never surfaced to the caller.
package delivery
