package payment

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSQLiteStore_CompleteOnlyPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC)

	o := Order{ID: "order_1", Amount: 499, Currency: "INR", UserID: "user-1", Receipt: "r1", Status: StatusPending, CreatedAt: at, UpdatedAt: at}
	if err := s.Create(ctx, o); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name      string
		id        string
		paymentID string
		wantErr   error
	}{
		{"first completion", "order_1", "pay_A", nil},
		{"second completion", "order_1", "pay_B", ErrOrderCompleted},
		{"same payment again", "order_1", "pay_A", ErrOrderCompleted},
		{"unknown order", "order_missing", "pay_A", ErrOrderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Complete(ctx, tt.id, tt.paymentID, at.Add(time.Minute))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Complete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, err := s.Get(ctx, "order_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted || got.PaymentID != "pay_A" {
		t.Errorf("order = %+v, want completed with pay_A", got)
	}
}

// staleStore always reports orders as pending, as a reader that lost a race
// with another verification would see them.
type staleStore struct {
	*SQLiteStore
}

func (s staleStore) Get(ctx context.Context, id string) (Order, error) {
	o, err := s.SQLiteStore.Get(ctx, id)
	if err == nil && o.Status == StatusCompleted {
		o.Status, o.PaymentID = StatusPending, ""
	}
	return o, err
}

func TestService_VerifyPayment_LosesRace(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, 499, "INR", "user-1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if _, err := f.svc.VerifyPayment(ctx, o.ID, "pay_A", Sign(testSecret, o.ID, "pay_A"), ""); err != nil {
		t.Fatalf("VerifyPayment(pay_A) error = %v", err)
	}
	delete(f.upgrader.upgrades, "user-1")

	f.svc.store = staleStore{f.store}
	_, err = f.svc.VerifyPayment(ctx, o.ID, "pay_B", Sign(testSecret, o.ID, "pay_B"), "")
	if !errors.Is(err, ErrOrderCompleted) {
		t.Fatalf("VerifyPayment(pay_B) error = %v, want %v", err, ErrOrderCompleted)
	}
	if len(f.upgrader.upgrades) != 0 {
		t.Errorf("losing verification upgraded %v", f.upgrader.upgrades)
	}
	stored, _ := f.store.Get(ctx, o.ID)
	if stored.PaymentID != "pay_A" {
		t.Errorf("payment id = %q, want pay_A", stored.PaymentID)
	}
}
