package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
	"github.com/tendant/simple-workspace/pkg/repository"
)

// DefaultVerificationTTL is the lifetime of an email verification link.
const DefaultVerificationTTL = 24 * time.Hour

const maxNameLength = 100

// VerificationMailer delivers account verification links.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, to, verifyURL string) error
}

// AccountConfig configures AccountService.
type AccountConfig struct {
	AppBaseURL           string
	VerificationTTL      time.Duration
	BlockDisposableEmail bool
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	ContactCode   string
	ContactNumber string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	User  *domain.User
	Token string
}

// Dashboard is a user together with the tenants they have joined.
type Dashboard struct {
	User    *domain.User                 `json:"user"`
	Tenants []domain.TenantMembershipRef `json:"tenants"`
}

// AccountService handles registration, login and email verification.
type AccountService struct {
	store  repository.Store
	tokens *TokenService
	hasher Hasher
	policy *PasswordPolicy
	mailer VerificationMailer
	config AccountConfig
	logger *slog.Logger
}

// NewAccountService creates a new account service. mailer may be nil.
func NewAccountService(
	store repository.Store,
	tokens *TokenService,
	hasher Hasher,
	policy *PasswordPolicy,
	mailer VerificationMailer,
	config AccountConfig,
	logger *slog.Logger,
) *AccountService {
	if config.VerificationTTL == 0 {
		config.VerificationTTL = DefaultVerificationTTL
	}
	if policy == nil {
		policy = &PasswordPolicy{}
	}
	return &AccountService{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		policy: policy,
		mailer: mailer,
		config: config,
		logger: logger,
	}
}

// Register creates a new unverified user and sends a verification link.
// A failed delivery is logged; the account is kept.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := SanitizeName(in.Name)
	if err := ValidateStringLength("name", name, 1, maxNameLength); err != nil {
		return nil, err
	}
	if err := ValidateEmail(in.Email, s.config.BlockDisposableEmail); err != nil {
		return nil, err
	}
	if err := s.policy.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Contact: domain.Contact{
			CountryCode: strings.TrimSpace(in.ContactCode),
			Number:      strings.TrimSpace(in.ContactNumber),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.Update(ctx, func(tx repository.Tx) error {
		exists, err := tx.Users().ExistsByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrUserAlreadyExists
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.sendVerification(ctx, user)
	return user, nil
}

func (s *AccountService) sendVerification(ctx context.Context, user *domain.User) {
	if s.mailer == nil {
		return
	}

	token, err := s.tokens.Issue(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID.String()},
		Email:            user.Email,
		Purpose:          PurposeEmailVerification,
	}, s.config.VerificationTTL)
	if err != nil {
		s.logger.Error("failed to issue verification token", "error", err, "user_id", user.ID)
		return
	}

	verifyURL := fmt.Sprintf("%s/api/user/verify/%s", strings.TrimRight(s.config.AppBaseURL, "/"), token)
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, verifyURL); err != nil {
		s.logger.Warn("failed to send verification email", "error", err, "user_id", user.ID)
	}
}

// Login checks credentials and issues an access token.
// Unknown emails and wrong passwords both return domain.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user *domain.User
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByEmail(ctx, NormalizeEmail(email))
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueForUser(user, uuid.Nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{User: user, Token: token}, nil
}

// Dashboard returns the user and every tenant membership they have accepted.
func (s *AccountService) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	var d Dashboard
	err := s.store.View(ctx, func(tx repository.Tx) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		d.User = user

		memberships, err := tx.Memberships().ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		d.Tenants = make([]domain.TenantMembershipRef, 0, len(memberships))
		for _, m := range memberships {
			if !m.Reciprocated() {
				continue
			}
			tenant, err := tx.Tenants().GetByID(ctx, m.TenantID)
			if err != nil {
				return err
			}
			d.Tenants = append(d.Tenants, m.Ref(tenant.Name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Verify marks the account named by a verification token as verified.
// It returns domain.ErrAlreadyVerified if the account was verified before.
func (s *AccountService) Verify(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.VerifyPurpose(token, PurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, &domain.InvalidTokenError{Reason: "malformed subject"}
	}

	var user *domain.User
	err = s.store.Update(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Verified {
			return domain.ErrAlreadyVerified
		}
		if err := tx.Users().MarkVerified(ctx, userID); err != nil {
			return err
		}
		user.Verified = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
