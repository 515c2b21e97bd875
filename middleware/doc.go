// Package middleware provides the gin middleware chain for the encoder
// service: request IDs, structured request logging, metrics bracketing,
// CORS, request body limits, and token bucket rate limiting.
//
// The intended order is Recovery, RequestID, Logging, Metrics, CORS,
// BodyLimit, RateLimit. Metrics runs after RequestID and Logging so the
// active-request gauge brackets the handler work, not the logging itself.
package middleware
