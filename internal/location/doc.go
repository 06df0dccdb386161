// Package location provides the room inventory for a Hearth site.
//
// Rooms are the spatial model devices attach to: each device belongs to
// at most one room, and rooms are addressed by a unique human name.
// The CSV importer resolves rooms by that name, creating them on demand.
//
// The package provides a Repository interface with a SQLite
// implementation.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines
// (SQLite WAL mode + connection pooling).
package location
