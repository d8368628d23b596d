// Package actor provides an in-process actor pool: a registry of addressable
// components keyed by (address, uid). Handles obtained from the pool are the
// component values themselves; callers type-assert them to the collaborator
// contract they need (see RefAs).
//
// The pool stands in for a networked actor runtime in tests, examples and
// single-process deployments. Transport and serialization are out of scope.
package actor
