package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/toolverse/auth"
	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/observe"
	"github.com/jonwraymond/toolverse/payment"
)

// StatusClientClosedRequest is sent when the caller went away before the
// answer was ready. Nobody reads it; it keeps such requests out of the 5xx
// counts.
const StatusClientClosedRequest = 499

// fail writes the JSON error response for err.
func (s *Server) fail(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status == StatusClientClosedRequest {
		s.logger.Debug(c.Request.Context(), "request canceled by client",
			observe.Field{Key: "path", Value: c.Request.URL.Path},
		)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			observe.Field{Key: "path", Value: c.Request.URL.Path},
			observe.Field{Key: "status", Value: status},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	var (
		notFound *domain.NotFoundError
		genErr   *domain.GenerationError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, gin.H{"error": "Request canceled"}
	case errors.As(err, &notFound):
		return http.StatusNotFound, gin.H{"error": notFound.UserMessage(), "hint": "check the spelling"}
	case errors.As(err, &genErr):
		switch genErr.Kind {
		case domain.KindQuota:
			return http.StatusTooManyRequests, gin.H{"error": genErr.UserMessage(), "retry": true}
		case domain.KindCredential:
			return http.StatusBadGateway, gin.H{"error": genErr.UserMessage()}
		default:
			return http.StatusServiceUnavailable, gin.H{"error": genErr.UserMessage(), "retry": true}
		}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"error": err.Error()}

	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, auth.ErrInvalidPlan):
		return http.StatusBadRequest, gin.H{"error": "Missing required fields"}
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict, gin.H{"error": "User already exists with this email"}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, gin.H{"error": "Invalid email or password"}

	case errors.Is(err, payment.ErrInvalidInput):
		return http.StatusBadRequest, gin.H{"error": "Missing required parameters"}
	case errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest, gin.H{"error": "Invalid payment signature"}
	case errors.Is(err, payment.ErrOrderNotFound):
		return http.StatusNotFound, gin.H{"error": "Order not found"}
	case errors.Is(err, payment.ErrOrderCompleted):
		return http.StatusConflict, gin.H{"error": "Order already paid"}
	case errors.Is(err, payment.ErrGateway):
		return http.StatusBadGateway, gin.H{"error": "Failed to create payment order"}
	}
	return http.StatusInternalServerError, gin.H{"error": "Internal server error"}
}
