// Package database builds connection strings and pgx pools for the
// journal's Postgres backend.
package database
