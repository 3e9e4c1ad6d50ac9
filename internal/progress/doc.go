// Package progress drives the single progress notification shown while the
// download worker is busy.
//
// A Reporter is either Hidden or Active. The first update of a run activates
// it, later updates replace the notification in place, and the worker hides
// it once the queue drains. Rendering is delegated to a Surface: a console
// line for interactive runs and sampled structured logs for daemons.
package progress
