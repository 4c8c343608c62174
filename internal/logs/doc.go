// Package logs reads crate.log for the CLI.
//
// Read returns the last lines of the file (or everything after a byte
// offset) with bounded memory, optionally narrowed to one component. Follow
// polls from an offset and hands each batch of new lines to a callback until
// its context ends.
package logs
