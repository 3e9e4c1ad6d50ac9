// Package pipeline runs the per-track download stage sequence.
//
// Stages, in order:
//   - resolve locator (fatal)
//   - create fetch session: scratch cache directory (fatal)
//   - fetch audio, metadata sidecar and thumbnail, 1+retries attempts (fatal when exhausted)
//   - parse the metadata sidecar into the track (fatal when missing or corrupt)
//   - write ID3 tags when the format supports them and tagging is enabled (non-fatal)
//   - finalize audio into the downloads directory (fatal)
//   - finalize cover into the cover store (non-fatal)
//
// Run re-reads the track before acting and silently skips anything that is no
// longer pending. Scratch files are removed on every exit path, including
// panics. Only the final status and storage keys leave the pipeline, through
// the store.
package pipeline
