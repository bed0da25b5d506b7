package api

import "context"

type contextKey string

const callerContextKey contextKey = "api_caller"

// anonymousCaller labels requests when no API keys are configured
const anonymousCaller = "anonymous"

// CallerFromContext returns the caller label set by the auth middleware
func CallerFromContext(ctx context.Context) string {
	caller, ok := ctx.Value(callerContextKey).(string)
	if !ok {
		return anonymousCaller
	}
	return caller
}

// ContextWithCaller adds the caller label to context
func ContextWithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}
