// Package tasks converts a playlist from one music service to another.
//
// # Pipeline
//
// The [Orchestrator] drives a single [models.ConversionJob] through a fixed state machine:
//
//	Idle -> Searching -> {Aborted | Matched}
//	Matched -> Creating -> {CreateFailed | Created}
//	Created -> Inserting -> {Success | InsertFailedRolledBack}
//
// Each step is a separate component:
//
//  1. [Matcher] : one destination search per track; unmatched tracks become misses
//  2. [Coordinator] : runs the matcher over the whole track list with bounded concurrency
//     and pacing. The first Unauthorized or QuotaExceeded failure cancels every other search.
//  3. [Writer] : creates the playlist, then inserts the hits in order
//  4. [Compensator] : deletes the playlist when insertion fails, exactly once
//
// Every run ends in a [models.ConversionOutcome]. Nothing is retried, and running the same job
// twice creates two playlists.
//
// # Progress Reporting
//
// Transitions are published as [ProgressUpdate] values on an optional channel. Sends never block;
// updates are dropped when the channel is full.
//
// # Search Caching
//
// The optional [SearchCache] (repositories.SearchCacheRepository) serves repeated lookups.
// Cache errors are logged and otherwise ignored.
//
// # Success Hooks
//
// A [SuccessHook] runs once per successful conversion, typically to invalidate a cached playlist listing.
package tasks
