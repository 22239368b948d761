// Package history records subtitle download attempts in a SQLite database
// under the state directory.
//
// The schema is created on first open and versioned; a database written by
// a different schema version fails with ErrSchemaMismatch rather than being
// migrated. Writes retry briefly when SQLite reports the database as busy.
package history
