// Package schedule tracks recurring tasks such as the feed sync and answers
// when each is next due.
package schedule
