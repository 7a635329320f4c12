// Package service implements the application use cases for tasks. Each operation
// runs as one unit of work inside store.RunInTransaction and is scoped to the
// owner id supplied by the caller.
package service
