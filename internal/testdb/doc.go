// Package testdb provides helpers for PostgreSQL-backed integration tests.
// Tests using it are built with the integration tag and skip when DATABASE_URL is unset.
package testdb
