// Package main hosts the yodel CLI entrypoint and command graph.
//
// Commands edit the track database directly (add, retry, remove, backup,
// restore, reconcile) and the run command hosts the download daemon in the
// foreground. A running daemon notices database edits made by other yodel
// processes through its pending poll interval.
package main
