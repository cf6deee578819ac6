// Package database provides SQLite database connectivity for Marketcore.
//
// The database holds only local, non-authoritative state: discovery hints
// and subscription overlays. Authoritative device and access records live
// on chain and are never cached here.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations embedded into the binary
//   - Connection pooling and lifecycle management
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files follow the YYYYMMDD_HHMMSS_description.up.sql naming
// convention with a matching .down.sql for rollback.
package database
