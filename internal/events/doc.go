// Package events provides the in-process bus that links catalog changes,
// grabs and sync results to pending-release cleanup and notifications.
package events
