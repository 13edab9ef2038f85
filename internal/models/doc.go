// Package models defines the values that flow through a playlist conversion.
//
// The package contains three groups of types:
//
// 1. Catalog data: lightweight structs describing external service content
//   - [Playlist] : Basic playlist metadata used for listings
//   - [TrackDescriptor] : Title and optional artist of a source track
//
// 2. Search results: the outcome of looking up one descriptor in the destination catalog
//   - [Hit] : A matched destination item
//   - [Miss] : A descriptor that could not be matched, with its [shared.FailureKind]
//
// 3. Workflow state: values owned by a single orchestrator run
//   - [ConversionJob] : What to convert, created on user confirmation and never persisted
//   - [ConversionOutcome] : The terminal result reported upward
//
// A job is discarded once its outcome is emitted. Retrying a conversion means creating a new job.
package models
