package payment

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/toolverse/auth"
	"github.com/jonwraymond/toolverse/cache"
)

type fakeGateway struct {
	reqs []OrderRequest
	err  error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req OrderRequest) (GatewayOrder, error) {
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return GatewayOrder{}, g.err
	}
	return GatewayOrder{ID: "order_" + string(rune('0'+len(g.reqs))), Amount: req.Amount, Currency: req.Currency}, nil
}

type fakeUpgrader struct {
	upgrades map[string]auth.Plan
	err      error
}

func (u *fakeUpgrader) UpgradePlan(_ context.Context, userID string, plan auth.Plan) error {
	if u.err != nil {
		return u.err
	}
	u.upgrades[userID] = plan
	return nil
}

type paymentFixture struct {
	svc      *Service
	gateway  *fakeGateway
	store    *SQLiteStore
	upgrader *fakeUpgrader
}

var testSecret = []byte("rzp_test_secret")

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := cache.OpenDB(filepath.Join(t.TempDir(), "toolverse.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	return s
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		gateway:  &fakeGateway{},
		store:    newTestStore(t),
		upgrader: &fakeUpgrader{upgrades: map[string]auth.Plan{}},
	}
	svc, err := NewService(Config{
		Gateway:  f.gateway,
		Store:    f.store,
		Upgrader: f.upgrader,
		Secret:   testSecret,
		Clock:    func() time.Time { return time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	f.svc = svc
	return f
}

func TestNewService_Validation(t *testing.T) {
	store := newTestStore(t)
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"no gateway", Config{Store: store, Secret: testSecret}, ErrNilGateway},
		{"no store", Config{Gateway: &fakeGateway{}, Secret: testSecret}, ErrNilStore},
		{"no secret", Config{Gateway: &fakeGateway{}, Store: store}, ErrMissingKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(tt.cfg); !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewService() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_CreateOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, 4.99, "usd", "user-1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if o.ID != "order_1" || o.Amount != 499 || o.Currency != "USD" || o.Status != StatusPending {
		t.Errorf("order = %+v", o)
	}
	if !strings.HasPrefix(o.Receipt, "receipt_") || len(o.Receipt) != len("receipt_")+16 {
		t.Errorf("Receipt = %q, want receipt_<16 hex>", o.Receipt)
	}

	req := f.gateway.reqs[0]
	if req.Amount != 499 || req.UserID != "user-1" || req.Receipt != o.Receipt {
		t.Errorf("gateway request = %+v", req)
	}

	stored, err := f.store.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.UserID != "user-1" || stored.Status != StatusPending || stored.Amount != 499 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestService_CreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		currency string
		userID   string
		gwErr    error
		wantErr  error
	}{
		{"zero amount", 0, "INR", "u", nil, ErrInvalidInput},
		{"negative amount", -5, "INR", "u", nil, ErrInvalidInput},
		{"rounds to zero", 0.001, "INR", "u", nil, ErrInvalidInput},
		{"bad currency", 10, "rupees", "u", nil, ErrInvalidInput},
		{"no user", 10, "INR", " ", nil, ErrInvalidInput},
		{"gateway failure", 10, "INR", "u", ErrGateway, ErrGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t)
			f.gateway.err = tt.gwErr
			_, err := f.svc.CreateOrder(context.Background(), tt.amount, tt.currency, tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateOrder() error = %v, want %v", err, tt.wantErr)
			}
			if tt.gwErr == nil && len(f.gateway.reqs) != 0 {
				t.Error("invalid input reached the gateway")
			}
		})
	}
}

func TestService_VerifyPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, 499, "INR", "user-1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	sig := Sign(testSecret, o.ID, "pay_1")

	got, err := f.svc.VerifyPayment(ctx, o.ID, "pay_1", sig, "user-1")
	if err != nil {
		t.Fatalf("VerifyPayment() error = %v", err)
	}
	if got.Status != StatusCompleted || got.PaymentID != "pay_1" {
		t.Errorf("order = %+v", got)
	}
	if f.upgrader.upgrades["user-1"] != auth.PlanPremium {
		t.Errorf("upgrades = %v, want user-1 premium", f.upgrader.upgrades)
	}

	stored, _ := f.store.Get(ctx, o.ID)
	if stored.Status != StatusCompleted || stored.PaymentID != "pay_1" {
		t.Errorf("stored = %+v", stored)
	}

	// Replaying the same payment is accepted.
	delete(f.upgrader.upgrades, "user-1")
	if _, err := f.svc.VerifyPayment(ctx, o.ID, "pay_1", sig, "user-1"); err != nil {
		t.Fatalf("VerifyPayment() replay error = %v", err)
	}
	if len(f.upgrader.upgrades) != 0 {
		t.Error("replay upgraded the plan again")
	}
}

func TestService_VerifyPayment_Errors(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, 499, "INR", "user-1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	paid, err := f.svc.CreateOrder(ctx, 499, "INR", "user-1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if _, err := f.svc.VerifyPayment(ctx, paid.ID, "pay_A", Sign(testSecret, paid.ID, "pay_A"), ""); err != nil {
		t.Fatalf("VerifyPayment() error = %v", err)
	}

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		userID    string
		wantErr   error
	}{
		{"missing fields", o.ID, "", "sig", "", ErrInvalidInput},
		{"bad signature", o.ID, "pay_1", Sign([]byte("wrong"), o.ID, "pay_1"), "", ErrInvalidSignature},
		{"unknown order", "order_x", "pay_1", Sign(testSecret, "order_x", "pay_1"), "", ErrOrderNotFound},
		{"other user's order", o.ID, "pay_1", Sign(testSecret, o.ID, "pay_1"), "user-2", ErrOrderNotFound},
		{"paid with another payment", paid.ID, "pay_B", Sign(testSecret, paid.ID, "pay_B"), "", ErrOrderCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.VerifyPayment(ctx, tt.orderID, tt.paymentID, tt.signature, tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("VerifyPayment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	stored, _ := f.store.Get(ctx, o.ID)
	if stored.Status != StatusPending {
		t.Errorf("rejected verification changed status to %v", stored.Status)
	}
}

func TestService_VerifyPayment_UpgradeFailure(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.upgrader.err = auth.ErrUserNotFound

	o, err := f.svc.CreateOrder(ctx, 499, "INR", "user-1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	got, err := f.svc.VerifyPayment(ctx, o.ID, "pay_1", Sign(testSecret, o.ID, "pay_1"), "")
	if !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("VerifyPayment() error = %v, want %v", err, auth.ErrUserNotFound)
	}
	if got.Status != StatusCompleted {
		t.Errorf("order status = %v, want completed", got.Status)
	}
}
