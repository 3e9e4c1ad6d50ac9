// Package preflight provides readiness checks for the executables, paths and
// services yodel depends on.
//
// The daemon runs them once at startup and logs failures without refusing
// to start, since a missing downloads mount may come back later. The doctor
// command renders the same results as a table.
package preflight
