// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migrations are read from an fs.FS (normally an embed.FS compiled into the
// binary) and must be named {version}_{description}.sql, e.g.
// "001_initial_schema.sql". Each file runs in its own transaction together
// with the schema_migrations bookkeeping row, so a failed migration leaves no
// trace. Checksums of applied files are compared on every run; editing an
// applied migration is reported as ErrChecksumMismatch.
//
// Example:
//
//	manager := migration.NewMigrationManager(migration.NewFileScanner(files, "migrations"),
//		migration.NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
