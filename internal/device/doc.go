// Package device provides the device inventory and its reading history.
//
// A Device is any sensor or appliance the system tracks: it carries a
// unique external ID (the identifier devices publish under on MQTT), an
// optional room assignment, a coarse on/off status, and the last value
// reported. Readings are appended to a history table and consumed by
// the stats endpoints.
//
// The package also contains the CSV bulk importer used to commission a
// site from a semicolon-separated inventory file.
//
// # Thread Safety
//
// SQLiteRepository and SQLiteDataRepository are safe for concurrent use
// from multiple goroutines (SQLite WAL mode + connection pooling).
package device
