// Package database provides the SQLite store behind flashmuxd's strobe
// history.
//
// It manages:
//   - Opening the database with busy timeout and optional WAL journaling
//   - Versioned migrations read from any fs.FS (normally migrations.FS)
//   - A single pooled connection, matching SQLite's single writer
//
// Security Considerations:
//   - Queries use parameterised statements only
//   - The database file is restricted to 0600
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
