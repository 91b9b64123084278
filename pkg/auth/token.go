package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// Token purposes
const (
	PurposeAccess            = ""
	PurposeEmailVerification = "email_verification"
)

// DefaultTokenTTL is used when TokenConfig.TTL is zero.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig holds signing configuration.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Claims is the payload of an identity token.
// TenantID and Role are set only on tokens scoped to a tenant.
type Claims struct {
	jwt.RegisteredClaims
	Email    string      `json:"email,omitempty"`
	Name     string      `json:"name,omitempty"`
	Verified bool        `json:"verified,omitempty"`
	TenantID string      `json:"tenant_id,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
	Purpose  string      `json:"purpose,omitempty"`
}

// UserID returns the subject as a UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// ActiveTenantID returns the tenant the token is scoped to, if any.
func (c *Claims) ActiveTenantID() (uuid.UUID, bool) {
	if c.TenantID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.TenantID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// TokenService issues and verifies signed identity tokens. It is stateless:
// there is no revocation list and tokens expire only through their TTL.
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a new token service.
func NewTokenService(config TokenConfig) *TokenService {
	if config.TTL == 0 {
		config.TTL = DefaultTokenTTL
	}
	return &TokenService{config: config}
}

// TTL returns the default access token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs claims with the given lifetime. A zero ttl uses the configured default.
func (s *TokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.config.TTL
	}
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.Issuer = s.config.Issuer
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.Secret)
}

// IssueForUser issues an access token for a user, optionally scoped to a tenant.
func (s *TokenService) IssueForUser(user *domain.User, tenantID uuid.UUID, role domain.Role) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID.String()},
		Email:            user.Email,
		Name:             user.Name,
		Verified:         user.Verified,
	}
	if tenantID != uuid.Nil {
		claims.TenantID = tenantID.String()
		claims.Role = role
	}
	return s.Issue(claims, 0)
}

// Verify checks the signature, expiry and shape of an access token.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	return s.VerifyPurpose(tokenString, PurposeAccess)
}

// VerifyPurpose is Verify for tokens minted for a specific purpose.
func (s *TokenService) VerifyPurpose(tokenString, purpose string) (*Claims, error) {
	if tokenString == "" {
		return nil, &domain.InvalidTokenError{Reason: "missing token"}
	}

	var opts []jwt.ParserOption
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		return nil, &domain.InvalidTokenError{Reason: tokenErrorReason(err)}
	}
	if !token.Valid {
		return nil, &domain.InvalidTokenError{Reason: "token is not valid"}
	}
	if _, err := claims.UserID(); err != nil {
		return nil, &domain.InvalidTokenError{Reason: "malformed subject"}
	}
	if claims.Purpose != purpose {
		return nil, &domain.InvalidTokenError{Reason: "wrong token purpose"}
	}

	return claims, nil
}

func tokenErrorReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature mismatch"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unexpected signing method"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "unexpected issuer"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "missing required claim"
	default:
		return "token rejected"
	}
}
