// Package daemon hosts the long-running download process.
//
// A Daemon takes an exclusive file lock in the state directory so only one
// process drains the track database, then runs the download worker and a
// periodic reconciliation sweep side by side. Stop cancels both, waits for
// them and releases the lock.
package daemon
