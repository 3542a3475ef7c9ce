package users

import (
	"context"
	"errors"
	"io"
	"testing"

	"plateful-backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type fakeUserRepo struct {
	usersByID    map[string]*models.User
	usersByEmail map[string]*models.User
	tokens       map[string]string
	addresses    map[int]*models.Address
	nextAddrID   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		usersByID:    map[string]*models.User{},
		usersByEmail: map[string]*models.User{},
		tokens:       map[string]string{},
		addresses:    map[int]*models.Address{},
		nextAddrID:   1,
	}
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if _, ok := r.usersByEmail[user.Email]; ok {
		return models.ErrConflict
	}
	user.ID = uuid.New().String()
	r.usersByID[user.ID] = user
	r.usersByEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	if u, ok := r.usersByID[userID]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (r *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := r.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	if _, ok := r.usersByID[user.ID]; !ok {
		return models.ErrNotFound
	}
	r.usersByID[user.ID] = user
	r.usersByEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) SaveActivationToken(ctx context.Context, userID, token string) error {
	r.tokens[token] = userID
	return nil
}

func (r *fakeUserRepo) FindUserByActivationToken(ctx context.Context, token string) (*models.User, error) {
	userID, ok := r.tokens[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r.FindUserByID(ctx, userID)
}

func (r *fakeUserRepo) ActivateUser(ctx context.Context, userID string) error {
	u, ok := r.usersByID[userID]
	if !ok {
		return models.ErrNotFound
	}
	u.IsActive = true
	return nil
}

func (r *fakeUserRepo) CreateAddress(ctx context.Context, address *models.Address) error {
	address.ID = r.nextAddrID
	r.nextAddrID++
	r.addresses[address.ID] = address
	return nil
}

func (r *fakeUserRepo) FindAddress(ctx context.Context, addressID int) (*models.Address, error) {
	if a, ok := r.addresses[addressID]; ok {
		return a, nil
	}
	return nil, models.ErrNotFound
}

func (r *fakeUserRepo) ListAddresses(ctx context.Context, userID string) ([]*models.Address, error) {
	var out []*models.Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateAddress(ctx context.Context, address *models.Address) error {
	if _, ok := r.addresses[address.ID]; !ok {
		return models.ErrNotFound
	}
	r.addresses[address.ID] = address
	return nil
}

func (r *fakeUserRepo) DeleteAddress(ctx context.Context, addressID int, userID string) error {
	a, ok := r.addresses[addressID]
	if !ok || a.UserID != userID {
		return models.ErrNotFound
	}
	delete(r.addresses, addressID)
	return nil
}

type fakeActivationSender struct {
	sent []string
	err  error
}

func (s *fakeActivationSender) SendActivationEmail(ctx context.Context, to, name, token string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func newTestService(repo *fakeUserRepo, sender *fakeActivationSender) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(repo, sender, logger, "test-secret", nil)
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("customer is approved immediately", func(t *testing.T) {
		repo := newFakeUserRepo()
		sender := &fakeActivationSender{}
		svc := newTestService(repo, sender)

		user, err := svc.Signup(ctx, models.SignupRequest{
			Name: "Ada", Email: "ada@example.com", Password: "correct horse", Role: models.RoleCustomer,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ApprovalStatus != models.ApprovalApproved {
			t.Errorf("approval = %s, want APPROVED", user.ApprovalStatus)
		}
		if user.IsActive {
			t.Error("expected account inactive until the email link is used")
		}
		if user.PasswordHash == "correct horse" {
			t.Error("password stored in plaintext")
		}
		if len(sender.sent) != 1 {
			t.Errorf("activation emails = %d, want 1", len(sender.sent))
		}
	})

	t.Run("delivery person starts pending", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo(), &fakeActivationSender{})
		user, err := svc.Signup(ctx, models.SignupRequest{
			Name: "Kai", Email: "kai@example.com", Password: "correct horse", Role: models.RoleDeliveryPerson,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ApprovalStatus != models.ApprovalPending {
			t.Errorf("approval = %s, want PENDING", user.ApprovalStatus)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo(), &fakeActivationSender{})
		req := models.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "correct horse", Role: models.RoleCustomer}
		if _, err := svc.Signup(ctx, req); err != nil {
			t.Fatalf("seed signup failed: %v", err)
		}
		_, err := svc.Signup(ctx, req)
		if !errors.Is(err, models.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("email failure does not fail signup", func(t *testing.T) {
		svc := newTestService(newFakeUserRepo(), &fakeActivationSender{err: errors.New("ses outage")})
		if _, err := svc.Signup(ctx, models.SignupRequest{
			Name: "Ada", Email: "ada@example.com", Password: "correct horse", Role: models.RoleCustomer,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestActivateAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := newTestService(repo, &fakeActivationSender{})

	user, err := svc.Signup(ctx, models.SignupRequest{
		Name: "Ada", Email: "ada@example.com", Password: "correct horse", Role: models.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	var token string
	for tok := range repo.tokens {
		token = tok
	}
	if token == "" {
		t.Fatal("no activation token saved")
	}

	t.Run("login before activation is rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "correct horse"})
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("activation logs the user in", func(t *testing.T) {
		resp, err := svc.Activate(ctx, token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.AccessToken == "" {
			t.Error("expected an access token")
		}
		if resp.User.ID != user.ID {
			t.Errorf("user id = %s, want %s", resp.User.ID, user.ID)
		}
	})

	t.Run("login succeeds after activation", func(t *testing.T) {
		resp, err := svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "correct horse"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.AccessToken == "" {
			t.Error("expected an access token")
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown email is rejected the same way", func(t *testing.T) {
		_, err := svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("bogus activation token", func(t *testing.T) {
		_, err := svc.Activate(ctx, "not-a-token")
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAddresses(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := newTestService(repo, &fakeActivationSender{})

	addr, err := svc.AddAddress(ctx, "customer-1", models.AddAddressRequest{
		Label: "Home", StreetAddress: "12 Main St", City: "Springfield", PostalCode: "12345",
	})
	if err != nil {
		t.Fatalf("add address failed: %v", err)
	}

	t.Run("owner updates own address", func(t *testing.T) {
		updated, err := svc.UpdateAddress(ctx, "customer-1", addr.ID, models.UpdateAddressRequest{City: "Shelbyville"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.City != "Shelbyville" {
			t.Errorf("city = %s, want Shelbyville", updated.City)
		}
	})

	t.Run("stranger cannot update", func(t *testing.T) {
		_, err := svc.UpdateAddress(ctx, "customer-2", addr.ID, models.UpdateAddressRequest{City: "Elsewhere"})
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		if err := svc.DeleteAddress(ctx, "customer-2", addr.ID); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
