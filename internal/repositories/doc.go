// Package repositories implements SQLite persistence for the caches around a conversion.
//
// Nothing about a conversion job itself is persisted; a job lives only for one run.
//
// Key Implementations:
//   - [SearchCacheRepository] : destination search hits keyed by service and normalized title/artist, valid for a TTL (24h by default)
//   - [PlaylistCacheRepository] : last fetched playlist listing per user and service, invalidated after a successful conversion
//
// Queries are built with squirrel and run against the schema embedded in the shared package.
package repositories
