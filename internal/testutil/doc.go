// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing subtasks and schedule fixtures. They are not
// intended for production usage.
package testutil
