// Package database manages the PostgreSQL connection pool for the tick
// archive.
package database
