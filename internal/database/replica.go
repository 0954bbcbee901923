package database

import "gorm.io/gorm"

// readDB is an optional read replica connection. When unset, reads fall back
// to the primary.
var readDB *gorm.DB

// SetReadDB installs a read replica connection for read-path queries.
func SetReadDB(db *gorm.DB) {
	readDB = db
}

// GetReadDB returns the read replica connection, or nil when none is configured.
func GetReadDB() *gorm.DB {
	return readDB
}
