// Package tasks runs long catalog jobs with real-time progress reporting.
//
// # Operations
//
//  1. [Engine.BulkImport] : add many books at once
//     - Checks the session may add books before sending anything
//     - Feeds rows to a worker pool paced by a rate limiter
//     - Records the run as a [models.ImportJob] when a [JobRecorder] is attached
//     - Reloads the catalog once at the end rather than after every row
//
//  2. [Engine.Export] : write the catalog to disk
//     - Fetches books and, when asked and signed in, reading lists
//     - Writes JSON, CSV, Markdown or plain text
//     - Optionally downloads covers concurrently for Markdown exports
//     - Writes an export_manifest.json describing what was produced
//
// # Progress Reporting
//
// Both operations take an optional channel of [ProgressUpdate]. Sends never block: a
// full channel drops the update.
package tasks
