// Package services tracks the external dependencies the server relies on.
package services

import "context"

// Checker reports whether a dependency is available
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function, such as a store's Ping, to Checker
type CheckFunc func(ctx context.Context) error

// HealthCheck implements Checker
func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}
