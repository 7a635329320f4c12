// Package store defines the persistence interfaces for tasks and the transaction
// helper that scopes one unit of work to one database transaction. Implementations
// live under internal/platform.
package store
