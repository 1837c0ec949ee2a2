package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonwraymond/toolverse/auth"
	"github.com/jonwraymond/toolverse/observe"
)

// PlanUpgrader changes a user's plan after payment.
type PlanUpgrader interface {
	UpgradePlan(ctx context.Context, userID string, plan auth.Plan) error
}

// Config wires a Service.
type Config struct {
	Gateway  Gateway
	Store    Store
	Upgrader PlanUpgrader

	// Secret verifies payment signatures. It is the gateway key secret.
	Secret []byte

	Logger observe.Logger
	Clock  func() time.Time

	// Receipt overrides the random receipt generator.
	Receipt func() (string, error)
}

// Service creates and verifies orders.
type Service struct {
	gateway  Gateway
	store    Store
	upgrader PlanUpgrader
	secret   []byte
	logger   observe.Logger
	now      func() time.Time
	receipt  func() (string, error)
}

// NewService validates cfg and creates a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Gateway == nil {
		return nil, ErrNilGateway
	}
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingKey
	}
	s := &Service{
		gateway:  cfg.Gateway,
		store:    cfg.Store,
		upgrader: cfg.Upgrader,
		secret:   cfg.Secret,
		logger:   cfg.Logger,
		now:      cfg.Clock,
		receipt:  cfg.Receipt,
	}
	if s.logger == nil {
		s.logger = observe.NopLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.receipt == nil {
		s.receipt = newReceipt
	}
	return s, nil
}

// CreateOrder opens a gateway order for amount (major units) and records it
// as pending.
func (s *Service) CreateOrder(ctx context.Context, amount float64, currency, userID string) (Order, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	userID = strings.TrimSpace(userID)
	if userID == "" || !validCurrency(currency) || !(amount > 0) || math.IsInf(amount, 0) {
		return Order{}, ErrInvalidInput
	}
	minor := int64(math.Round(amount * 100))
	if minor <= 0 {
		return Order{}, ErrInvalidInput
	}

	receipt, err := s.receipt()
	if err != nil {
		return Order{}, fmt.Errorf("payment: generating receipt: %w", err)
	}

	g, err := s.gateway.CreateOrder(ctx, OrderRequest{
		Amount:   minor,
		Currency: currency,
		Receipt:  receipt,
		UserID:   userID,
	})
	if err != nil {
		return Order{}, err
	}

	now := s.now().UTC()
	o := Order{
		ID:        g.ID,
		Amount:    minor,
		Currency:  currency,
		UserID:    userID,
		Receipt:   receipt,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return Order{}, err
	}
	s.logger.Info(ctx, "payment order created",
		observe.Field{Key: "order_id", Value: o.ID},
		observe.Field{Key: "user_id", Value: userID},
		observe.Field{Key: "amount", Value: minor},
		observe.Field{Key: "currency", Value: currency},
	)
	return o, nil
}

// VerifyPayment checks the signature, completes the order and upgrades its
// owner to premium. When userID is set the order must belong to that user.
// Verifying an already completed order with the same payment id succeeds
// without side effects.
func (s *Service) VerifyPayment(ctx context.Context, orderID, paymentID, signature, userID string) (Order, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return Order{}, ErrInvalidInput
	}
	if !ValidSignature(s.secret, orderID, paymentID, signature) {
		s.logger.Warn(ctx, "payment signature mismatch", observe.Field{Key: "order_id", Value: orderID})
		return Order{}, ErrInvalidSignature
	}

	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if userID != "" && o.UserID != userID {
		return Order{}, ErrOrderNotFound
	}
	if o.Status == StatusCompleted {
		if o.PaymentID == paymentID {
			return o, nil
		}
		return Order{}, ErrOrderCompleted
	}

	now := s.now().UTC()
	if err := s.store.Complete(ctx, orderID, paymentID, now); err != nil {
		if !errors.Is(err, ErrOrderCompleted) {
			return Order{}, err
		}
		// Another verification completed the order first.
		cur, gerr := s.store.Get(ctx, orderID)
		if gerr == nil && cur.PaymentID == paymentID {
			return cur, nil
		}
		return Order{}, ErrOrderCompleted
	}
	o.Status = StatusCompleted
	o.PaymentID = paymentID
	o.UpdatedAt = now

	if s.upgrader != nil {
		if err := s.upgrader.UpgradePlan(ctx, o.UserID, auth.PlanPremium); err != nil {
			return o, fmt.Errorf("payment: upgrading plan: %w", err)
		}
	}
	s.logger.Info(ctx, "payment verified",
		observe.Field{Key: "order_id", Value: orderID},
		observe.Field{Key: "user_id", Value: o.UserID},
	)
	return o, nil
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func newReceipt() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "receipt_" + hex.EncodeToString(b), nil
}
