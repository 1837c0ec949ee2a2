package generate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/resilience"
)

var (
	quotaMarkers      = []string{"429", "RESOURCE_EXHAUSTED", "quota"}
	credentialMarkers = []string{"API key not valid", "API_KEY_INVALID", "PERMISSION_DENIED", "UNAUTHENTICATED"}
)

// Classify maps any generation failure to a *domain.GenerationError.
// It returns nil for a nil error and passes GenerationErrors through.
func Classify(op string, err error) *domain.GenerationError {
	if err == nil {
		return nil
	}
	var ge *domain.GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	return domain.NewGenerationError(kindOf(err), op, err)
}

func kindOf(err error) domain.Kind {
	switch {
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return domain.KindQuota
	case errors.Is(err, ErrMissingAPIKey):
		return domain.KindCredential
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, domain.ErrValidation):
		return domain.KindMalformed
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrBulkheadFull),
		errors.Is(err, resilience.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return domain.KindUnavailable
	}

	if code, ok := apiStatus(err); ok {
		switch code {
		case http.StatusTooManyRequests:
			return domain.KindQuota
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.KindCredential
		}
	}

	msg := err.Error()
	switch {
	case containsAny(msg, quotaMarkers):
		return domain.KindQuota
	case containsAny(msg, credentialMarkers):
		return domain.KindCredential
	}
	return domain.KindUnavailable
}

func apiStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
