// Package middleware provides HTTP middleware for the Ludoteca API.
//
// Global middleware (RequestID, Logger, Recovery, CORS, BodyLimit, RateLimit,
// Compress) wraps the whole mux. Per-route chains add authentication and
// idempotency:
//
//	protected := middleware.Chain(h,
//	    middleware.Auth(tokens),
//	    middleware.RequireRole(model.UserRoleAdmin),
//	    middleware.Idempotency(store),
//	)
//
// # Context Values
//
// Auth stores the validated claims in the request context:
//
//   - GetUserID(ctx): authenticated user ID
//   - GetUserRole(ctx): role carried by the access token
//   - GetClaims(ctx): full JWT claims
//   - GetRequestID(ctx): unique request identifier
//
// RateLimit runs before Auth and keys on the user of a valid bearer token,
// falling back to the client IP. Idempotency keys on the authenticated user.
package middleware
