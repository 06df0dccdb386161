// Package database opens hearthd's SQLite store and runs its embedded
// schema migrations.
//
// The connection runs in WAL mode with foreign keys on and a single
// writer connection. Migrations are additive-only: new columns arrive
// nullable or with defaults, and nothing drops or renames a column, so
// an older binary can still read a newer database.
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Every migration ships as an .up.sql / .down.sql pair; the down side
// exists for development, production only rolls forward.
package database
