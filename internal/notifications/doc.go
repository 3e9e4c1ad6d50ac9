// Package notifications delivers download events via ntfy.
//
// The ntfy topic comes from config.toml; without one the service degrades to
// a no-op. Failure notifications are sent only when the errors flag is set and
// completion notifications only when the completed flag is set, so pipeline
// code can publish unconditionally.
package notifications
