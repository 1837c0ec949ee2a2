package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReportResponse is the JSON body of the detailed health endpoint.
type ReportResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version,omitempty"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is the JSON form of a single check.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func checkResponse(r Result) CheckResponse {
	out := CheckResponse{
		Status:   r.Status.String(),
		Message:  r.Message,
		Duration: r.Duration.String(),
		Details:  r.Details,
	}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return out
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Liveness answers 200 while the process is serving.
func Liveness(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Readiness answers 200 unless a check is unhealthy.
func Readiness(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		report := agg.CheckAll(ctx)
		switch report.Status {
		case StatusHealthy:
			c.String(http.StatusOK, "OK")
		case StatusDegraded:
			c.String(http.StatusOK, "DEGRADED")
		default:
			c.String(http.StatusServiceUnavailable, "UNHEALTHY")
		}
	}
}

// Detailed answers with the full report as JSON.
func Detailed(agg *Aggregator, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := agg.CheckAll(c.Request.Context())

		resp := ReportResponse{
			Status:    report.Status.String(),
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(report.Checks)),
		}
		for name, r := range report.Checks {
			resp.Checks[name] = checkResponse(r)
		}
		c.JSON(httpStatus(report.Status), resp)
	}
}

// Single answers with one named check, or 404 when it is not registered.
func Single(agg *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := agg.Check(c.Request.Context(), c.Param("name"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(httpStatus(r.Status), checkResponse(r))
	}
}

// Register mounts the probes on r.
func Register(r gin.IRoutes, agg *Aggregator, version string) {
	r.GET("/healthz", Liveness)
	r.GET("/readyz", Readiness(agg))
	r.GET("/health", Detailed(agg, version))
	r.GET("/health/:name", Single(agg))
}
