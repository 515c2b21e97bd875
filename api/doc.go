// Package api exposes the encoder service over HTTP with gin.
//
// Routes:
//
//	POST /encode/:type        encode one sequence
//	POST /encode/batch/:type  encode a batch of sequences
//	GET  /health              liveness, 503 when no models are loaded
//	GET  /status              model availability and configuration
//	GET  /metrics             metrics snapshot plus cache statistics
//	POST /cache/clear         clear one (?type=) or all cache namespaces
//
// Error responses carry {"error": message, "status": category} where the
// category is one of validation_error, input_error, model_error, or error.
package api
