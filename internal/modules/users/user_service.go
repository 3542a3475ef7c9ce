package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"plateful-backend/internal/models"
	"plateful-backend/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

const accessTokenTTL = 24 * time.Hour

// ActivationSender delivers account-activation emails.
type ActivationSender interface {
	SendActivationEmail(ctx context.Context, to, name, token string) error
}

// ServiceInterface defines identity and profile operations. FindUserByID is
// the lookup other modules (delivery assignment, payments) depend on.
type ServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Activate(ctx context.Context, token string) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GoogleLogin(ctx context.Context, code string) (*models.AuthResponse, error)
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error)
	SetApproval(ctx context.Context, targetUserID string, status models.ApprovalStatus) error

	AddAddress(ctx context.Context, userID string, req models.AddAddressRequest) (*models.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]*models.Address, error)
	UpdateAddress(ctx context.Context, userID string, addressID int, req models.UpdateAddressRequest) (*models.Address, error)
	DeleteAddress(ctx context.Context, userID string, addressID int) error
}

type Service struct {
	repo        RepositoryInterface
	emailSvc    ActivationSender
	logger      *logrus.Logger
	jwtSecret   string
	oauthConfig *oauth2.Config
}

func NewService(repo RepositoryInterface, emailSvc ActivationSender, logger *logrus.Logger, jwtSecret string, oauthConfig *oauth2.Config) *Service {
	return &Service{
		repo:        repo,
		emailSvc:    emailSvc,
		logger:      logger,
		jwtSecret:   jwtSecret,
		oauthConfig: oauthConfig,
	}
}

// Signup registers a new user. Customers are approved immediately; restaurant
// owners and delivery persons start PENDING until back-office review.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	_, err := s.repo.FindUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Signup.FindUserByEmail: %w", err)
	}
	if err == nil {
		return nil, models.ErrConflict
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.Hash: %w", err)
	}

	approval := models.ApprovalPending
	if req.Role == models.RoleCustomer {
		approval = models.ApprovalApproved
	}

	user := &models.User{
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   string(hashed),
		Role:           req.Role,
		ApprovalStatus: approval,
		AuthProvider:   "local",
		IsActive:       false,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.Token: %w", err)
	}
	if err := s.repo.SaveActivationToken(ctx, user.ID, token); err != nil {
		return nil, err
	}
	if err := s.emailSvc.SendActivationEmail(ctx, user.Email, user.Name, token); err != nil {
		// The account exists; activation can be re-sent later.
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Activation email not sent")
	}

	return user, nil
}

// Activate consumes an activation token and logs the user in.
func (s *Service) Activate(ctx context.Context, token string) (*models.AuthResponse, error) {
	user, err := s.repo.FindUserByActivationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ActivateUser(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsActive = true
	return s.issueToken(user)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrUnauthorized
	}
	return s.issueToken(user)
}

// googleUserInfo is the shape of Google's userinfo response.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// GoogleLogin exchanges an OAuth authorization code, provisioning a customer
// account on first sign-in.
func (s *Service) GoogleLogin(ctx context.Context, code string) (*models.AuthResponse, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service.GoogleLogin.Exchange: %w", err)
	}

	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("service.GoogleLogin.UserInfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service.GoogleLogin: userinfo returned %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("service.GoogleLogin.Decode: %w", err)
	}
	if !info.VerifiedEmail {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.FindUserByEmail(ctx, info.Email)
	if errors.Is(err, models.ErrNotFound) {
		user = &models.User{
			Name:           info.Name,
			Email:          info.Email,
			Role:           models.RoleCustomer,
			ApprovalStatus: models.ApprovalApproved,
			AuthProvider:   "google",
			AuthProviderID: info.ID,
			IsActive:       true,
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *Service) issueToken(user *models.User) (*models.AuthResponse, error) {
	signed, err := utils.GenerateJWT(user, s.jwtSecret, accessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{AccessToken: signed, User: user}, nil
}

func (s *Service) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.FindUserByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data.Name != nil {
		user.Name = *data.Name
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetApproval updates a restaurant owner's or delivery person's vetting state.
func (s *Service) SetApproval(ctx context.Context, targetUserID string, status models.ApprovalStatus) error {
	user, err := s.repo.FindUserByID(ctx, targetUserID)
	if err != nil {
		return err
	}
	user.ApprovalStatus = status
	return s.repo.UpdateUser(ctx, user)
}

func (s *Service) AddAddress(ctx context.Context, userID string, req models.AddAddressRequest) (*models.Address, error) {
	address := &models.Address{
		UserID:        userID,
		Label:         req.Label,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		PostalCode:    req.PostalCode,
		IsDefault:     req.IsDefault,
	}
	if err := s.repo.CreateAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *Service) ListAddresses(ctx context.Context, userID string) ([]*models.Address, error) {
	return s.repo.ListAddresses(ctx, userID)
}

func (s *Service) UpdateAddress(ctx context.Context, userID string, addressID int, req models.UpdateAddressRequest) (*models.Address, error) {
	address, err := s.repo.FindAddress(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, models.ErrNotFound
	}

	if req.Label != "" {
		address.Label = req.Label
	}
	if req.StreetAddress != "" {
		address.StreetAddress = req.StreetAddress
	}
	if req.City != "" {
		address.City = req.City
	}
	if req.PostalCode != "" {
		address.PostalCode = req.PostalCode
	}
	if req.IsDefault != nil {
		address.IsDefault = *req.IsDefault
	}

	if err := s.repo.UpdateAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

func (s *Service) DeleteAddress(ctx context.Context, userID string, addressID int) error {
	return s.repo.DeleteAddress(ctx, addressID, userID)
}
