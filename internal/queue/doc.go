// Package queue holds the in-memory backlog of track ids awaiting the download
// worker.
//
// The backlog is FIFO and deduplicated by track id. Producers append pending
// snapshots without ever blocking; the single worker pops the head and blocks
// while the backlog is empty.
package queue
