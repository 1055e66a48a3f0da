// Package analytics is the client-side coordination core of an analytics
// SDK. A Client reconciles anonymous and identified distinct ids, keeps
// super properties, group memberships and timed events, builds outgoing
// events and profile updates for a delivery queue, and decides whether
// in-app content is presented through a process-wide display coordinator.
//
// Persistence, delivery, remote content and rendering are collaborators
// supplied by the host application:
//
//	Storage           durable snapshots (pkg/state)
//	delivery.Queue    outbound events and profile updates
//	content.Cache     remote in-app content and variants
//	display.Host      the UI thread and the foreground container
//
// Clients are created through a Registry, which shares one Storage and one
// display coordinator between them.
package analytics
