// Package migration applies versioned SQL schema migrations.
//
// Migration files are named {version}_{description}.sql (for example
// 001_create_rooms.sql) and are read from an fs.FS, usually an embedded
// directory owned by a storage driver. Applied versions are tracked in the
// schema_migrations table. Each migration runs in its own transaction together
// with its schema_migrations record, so a failed migration leaves no trace.
//
// Drivers plug in through the Executor interface: SQLiteExecutor covers
// database/sql connections, and the postgres package provides a pgx executor.
package migration
