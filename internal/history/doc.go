// Package history records probe runs in a SQLite database.
//
// Every workflow run (open, probe, first packet) is stored with its outcome,
// error kind and the tracks the reader reported so that `symphonia history`
// can list recent activity. The schema is managed through embedded,
// ordered SQL migrations tracked in schema_migrations. A file lock beside
// the database serializes migrations between concurrent processes.
package history
