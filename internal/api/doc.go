// Package api handles incoming HTTP requests for the task endpoints: path and
// body validation, calling the task service, and mapping results and errors
// to JSON responses.
package api
