// Package postgres implements the store interfaces on PostgreSQL through the
// pgx database/sql driver, and normalizes driver errors into store errors.
package postgres
