package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonwraymond/toolverse/observe"
)

// DefaultBcryptCost is the hashing cost for new passwords.
const DefaultBcryptCost = 10

// Config wires a Service.
type Config struct {
	Store  Store
	Tokens *JWTAuthenticator
	Logger observe.Logger

	// BcryptCost overrides DefaultBcryptCost.
	BcryptCost int

	// Clock overrides time.Now.
	Clock func() time.Time

	// NewID overrides uuid.NewString.
	NewID func() string
}

// Service implements signup, login and token verification.
type Service struct {
	store  Store
	tokens *JWTAuthenticator
	logger observe.Logger
	cost   int
	now    func() time.Time
	newID  func() string
}

// NewService validates cfg and creates a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Tokens == nil {
		return nil, ErrKeyNotFound
	}
	s := &Service{
		store:  cfg.Store,
		tokens: cfg.Tokens,
		logger: cfg.Logger,
		cost:   cfg.BcryptCost,
		now:    cfg.Clock,
		newID:  cfg.NewID,
	}
	if s.logger == nil {
		s.logger = observe.NopLogger()
	}
	if s.cost == 0 {
		s.cost = DefaultBcryptCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

// Signup registers a free-plan user and returns the account with a token.
func (s *Service) Signup(ctx context.Context, email, password, name string) (Account, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return Account{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return Account{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return Account{}, fmt.Errorf("auth: hashing password: %w", err)
	}

	u := User{
		ID:           s.newID(),
		Email:        email,
		Name:         name,
		Plan:         PlanFree,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return Account{}, err
	}
	s.logger.Info(ctx, "user registered", observe.Field{Key: "user_id", Value: u.ID})

	return s.withToken(ctx, u)
}

// Login checks the password and returns the account with a fresh token.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, ErrInvalidInput
	}

	u, err := s.store.ByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}

	if err := s.store.TouchLogin(ctx, u.ID, s.now().UTC()); err != nil {
		s.logger.Warn(ctx, "recording login failed",
			observe.Field{Key: "user_id", Value: u.ID},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}

	return s.withToken(ctx, u)
}

// VerifyToken validates token and returns the identity of a user that still
// exists. A token for a deleted user returns ErrInvalidCredentials.
func (s *Service) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	id, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	u, err := s.store.ByID(ctx, id.Principal)
	if errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if err != nil {
		return nil, err
	}

	id.Email = u.Email
	id.Name = u.Name
	id.Plan = u.Plan
	return id, nil
}

// UpgradePlan moves the user to plan.
func (s *Service) UpgradePlan(ctx context.Context, userID string, plan Plan) error {
	if !plan.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}
	if err := s.store.SetPlan(ctx, userID, plan); err != nil {
		return err
	}
	s.logger.Info(ctx, "plan changed",
		observe.Field{Key: "user_id", Value: userID},
		observe.Field{Key: "plan", Value: string(plan)},
	)
	return nil
}

func (s *Service) withToken(ctx context.Context, u User) (Account, error) {
	token, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return Account{}, err
	}
	acct := u.Account()
	acct.Token = token
	return acct, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
