// Package tasks runs long-lived, multi-prompt operations with real-time progress reporting.
//
// # Batch
//
// [BatchEngine.BatchAsk] sends many prompts through the recommendation service:
//
//   - a bounded worker pool (default 3, at most 10) processes prompts concurrently
//   - a shared rate limiter spaces out requests across all workers
//   - each prompt gets its own [controller.Controller], so results never interfere
//   - successful playlists are written as <nn>_<slug>.<ext> through the formatter package
//   - a manifest.json in the output directory records every success and failure
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends use select with default
// so a slow or absent reader never stalls the workers.
package tasks
