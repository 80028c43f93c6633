package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload embedded in an issued token. The permission list is a
// snapshot taken at issuance; authenticated calls re-derive permissions from
// storage, so edits after issuance take effect on the next validated request.
type Claims struct {
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	UserType    string   `json:"user_type"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject, or an error when the claim is missing
// or malformed.
func (c *Claims) UserID() (int64, error) {
	if c == nil || c.Subject == "" {
		return 0, errors.New("auth: token has no subject")
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("auth: parse subject: %w", err)
	}
	return id, nil
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer. The secret must not be empty.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 70 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the validity window for issued tokens.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue builds a claims snapshot from the user's current role and signs it.
func (i *TokenIssuer) Issue(user *User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Email:       user.Email,
		Username:    user.Username,
		Role:        user.Role.Name,
		UserType:    string(user.Kind),
		Permissions: user.Role.PermissionNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies the signature and expiry of a token and returns its claims.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("auth: token verification failed: %w", err)
	}
	return &claims, nil
}
