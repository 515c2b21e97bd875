package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/behaviorsense/encoderd/encoder"
)

// Error categories mirrored in the "status" field of error responses.
const (
	statusValidationError = "validation_error"
	statusInputError      = "input_error"
	statusModelError      = "model_error"
	statusError           = "error"
)

// respondError maps a service error to its HTTP status and category.
// Validation failures and unknown types are client errors; an unavailable
// model is 503 so load balancers retry elsewhere; everything unexpected is a
// plain 500 without internal detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, encoder.ErrUnknownType),
		errors.Is(err, encoder.ErrBatchTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  err.Error(),
			"status": statusValidationError,
		})
	case errors.Is(err, encoder.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  err.Error(),
			"status": statusInputError,
		})
	case errors.Is(err, encoder.ErrModelNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "encoder not available",
			"status": statusModelError,
		})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "internal server error",
			"status": statusError,
		})
	}
}

// respondBadRequest reports a malformed request body.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  message,
		"status": statusValidationError,
	})
}
