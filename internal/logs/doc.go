// Package logs reads the daemon log files for the CLI.
//
// The daemon writes one file per run and points CurrentName at the newest.
// Last returns the final lines of a file; Follow streams lines appended after
// an offset until its context ends.
package logs
