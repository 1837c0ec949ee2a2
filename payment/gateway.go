package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/jonwraymond/toolverse/observe"
)

// DefaultGatewayURL is the production Razorpay API.
const DefaultGatewayURL = "https://api.razorpay.com"

// OrderRequest is what the gateway needs to open an order.
type OrderRequest struct {
	// Amount is in minor currency units.
	Amount   int64
	Currency string
	Receipt  string
	UserID   string
}

// GatewayOrder is the gateway's view of a created order.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway opens orders with a payment provider.
//
// Contract:
//   - CreateOrder returns an order with a non-empty ID or an error.
//   - Provider rejections wrap ErrGateway.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error)
}

// GatewayConfig configures a RazorpayGateway.
type GatewayConfig struct {
	// BaseURL defaults to DefaultGatewayURL.
	BaseURL   string
	KeyID     string
	KeySecret string

	// Timeout bounds each attempt.
	// Default: 10s
	Timeout time.Duration

	// RetryMax is how many times a failed attempt is retried.
	// Default: 2
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the backoff between attempts.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	Logger observe.Logger
}

// RazorpayGateway talks to the Razorpay orders API.
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	inner     *retryablehttp.Client
}

// NewRazorpayGateway creates a gateway client.
func NewRazorpayGateway(cfg GatewayConfig) (*RazorpayGateway, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, ErrMissingKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGatewayURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 2
	}

	r := retryablehttp.NewClient()
	r.RetryMax = cfg.RetryMax
	r.HTTPClient.Timeout = cfg.Timeout
	if cfg.RetryWaitMin > 0 {
		r.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		r.RetryWaitMax = cfg.RetryWaitMax
	}
	// Hand the last response back so rejections can be reported.
	r.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.Logger != nil {
		r.Logger = leveledLogger{cfg.Logger}
	} else {
		r.Logger = nil
	}

	return &RazorpayGateway{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		inner:     r,
	}, nil
}

type createOrderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// CreateOrder posts to /v1/orders.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error) {
	body, err := json.Marshal(createOrderBody{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    map[string]string{"userId": req.UserID},
	})
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("payment: encoding order: %w", err)
	}

	hreq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", body)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("payment: building request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	hreq.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.inner.Do(hreq)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil && resp == nil {
		return GatewayOrder{}, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return GatewayOrder{}, fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, snippet(raw))
	}
	if readErr != nil {
		return GatewayOrder{}, fmt.Errorf("%w: reading response: %w", ErrGateway, readErr)
	}

	var order GatewayOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: decoding response: %w", ErrGateway, err)
	}
	if order.ID == "" {
		return GatewayOrder{}, fmt.Errorf("%w: response has no order id", ErrGateway)
	}
	return order, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(bytes.ToValidUTF8(b, nil)))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// leveledLogger routes retry logs through observe.
type leveledLogger struct {
	logger observe.Logger
}

func (l leveledLogger) Error(msg string, kv ...any) {
	l.logger.Error(context.Background(), msg, fields(kv)...)
}

func (l leveledLogger) Info(msg string, kv ...any) {
	l.logger.Info(context.Background(), msg, fields(kv)...)
}

func (l leveledLogger) Debug(msg string, kv ...any) {
	l.logger.Debug(context.Background(), msg, fields(kv)...)
}

func (l leveledLogger) Warn(msg string, kv ...any) {
	l.logger.Warn(context.Background(), msg, fields(kv)...)
}

func fields(kv []any) []observe.Field {
	out := make([]observe.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, observe.Field{Key: key, Value: fmt.Sprint(kv[i+1])})
	}
	return out
}

var _ Gateway = (*RazorpayGateway)(nil)

var _ retryablehttp.LeveledLogger = leveledLogger{}
