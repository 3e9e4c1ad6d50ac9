// Package services defines shared helpers consumed by the download pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp track IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper. Pipeline stages tag their
//     failures as fatal (the attempt ends and the track is marked failed),
//     non-fatal (reported only) or transient (a single fetch attempt that may
//     be retried).
//
// Use these helpers when adding stage logic so failure classification and
// log fields stay uniform across the pipeline.
package services
