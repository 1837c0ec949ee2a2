package server

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonwraymond/toolverse/auth"
	"github.com/jonwraymond/toolverse/directory"
	"github.com/jonwraymond/toolverse/observe"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "tv_session"

const directoryKey = "toolverse.directory"

var securityHeaderValues = map[string]string{
	"Content-Security-Policy": "default-src 'self'; script-src 'self' https://checkout.razorpay.com; " +
		"img-src 'self' data: https:; connect-src 'self' https://api.razorpay.com;",
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "DENY",
	"X-XSS-Protection":       "1; mode=block",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range securityHeaderValues {
			h.Set(k, v)
		}
		c.Next()
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error(c.Request.Context(), "panic serving request",
			observe.Field{Key: "path", Value: c.Request.URL.Path},
			observe.Field{Key: "panic", Value: recovered},
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx := c.Request.Context()
		fields := []observe.Field{
			{Key: "method", Value: c.Request.Method},
			{Key: "route", Value: route},
			{Key: "status", Value: c.Writer.Status()},
			{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
			{Key: "client_ip", Value: c.ClientIP()},
		}
		if uid := auth.UserID(ctx); uid != "" {
			fields = append(fields,
				observe.Field{Key: "user_id", Value: uid},
				observe.Field{Key: "plan", Value: string(auth.PlanFromContext(ctx))},
			)
		}
		s.logger.Info(ctx, "request", fields...)
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.Limiter != nil && !s.cfg.Limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

func (s *Server) checkOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
			c.Next()
			return
		}
		if !slices.Contains(s.cfg.AllowedOrigins, origin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid origin"})
			return
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Next()
	}
}

func requireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && !strings.Contains(c.ContentType(), "application/json") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "Invalid content type"})
			return
		}
		c.Next()
	}
}

// session selects the directory view for the caller's session, issuing a
// new session cookie when none or an invalid one is presented.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.Sessions == nil {
			c.Set(directoryKey, s.cfg.Directory)
			c.Next()
			return
		}

		id, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, int(s.cfg.SessionTTL.Seconds()), "/", "", s.cfg.SecureCookies, true)
		}
		c.Set(directoryKey, s.cfg.Directory.WithSession(s.cfg.Sessions.Get(id)))
		c.Next()
	}
}

func (s *Server) directoryFor(c *gin.Context) *directory.Service {
	if v, ok := c.Get(directoryKey); ok {
		if svc, ok := v.(*directory.Service); ok {
			return svc
		}
	}
	return s.cfg.Directory
}

// requireAuth verifies the bearer token and attaches the identity.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}
		id, err := s.cfg.Accounts.VerifyToken(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			return
		case errors.Is(err, auth.ErrTokenMalformed), errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingCredentials):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		default:
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
