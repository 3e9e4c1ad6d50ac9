// Package track defines the Track model, its status lifecycle and the SQLite
// backed store the download worker reads from and writes to.
//
// The store owns persistence only: WAL mode, busy retries, schema versioning,
// crash recovery of interrupted downloads, retries, reconciliation marks and
// JSON backup/restore. It also exposes ObservePending, the subscription the
// worker uses to learn about new pending work.
package track
