// Package notifications pushes pending-release activity to ntfy.
//
// The ntfy topic comes from the notifications section of the config; with no
// topic the service degrades to a no-op. Subscribe attaches the service to the
// event bus so every reconcile, removal or cleanup that changes the pending set
// produces one short summary message.
package notifications
