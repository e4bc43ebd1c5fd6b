package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

// HashPassword returns "salt$digest" where digest is sha256(password+salt).
// The salt is random, so hashing the same password twice yields different
// strings.
func HashPassword(plaintext string) string {
	salt := make([]byte, 16)
	_, _ = rand.Read(salt)
	saltHex := hex.EncodeToString(salt)
	sum := sha256.Sum256([]byte(plaintext + saltHex))
	return saltHex + "$" + hex.EncodeToString(sum[:])
}

// VerifyPassword checks plaintext against a stored "salt$digest" value.
// A malformed stored hash verifies as false, never panics.
func VerifyPassword(plaintext, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	sum := sha256.Sum256([]byte(plaintext + parts[0]))
	return hex.EncodeToString(sum[:]) == parts[1]
}

// ValidatePasswordStrength enforces the registration password policy and
// reports every violated rule at once.
func ValidatePasswordStrength(plaintext string) (bool, string) {
	var reasons []string
	if utf8.RuneCountInString(plaintext) < 6 {
		reasons = append(reasons, "password must be at least 6 characters")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		reasons = append(reasons, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		reasons = append(reasons, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "password must contain at least one digit")
	}
	if len(reasons) > 0 {
		return false, strings.Join(reasons, "; ")
	}
	return true, "password is valid"
}

// ValidateEmail requires one "@", non-empty local and domain parts, and a
// dot in the domain. Deliberately permissive, not RFC 5322.
func ValidateEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	return local != "" && domain != "" && strings.Contains(domain, ".")
}

// TokenClaims is the payload carried by a bearer token.
type TokenClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens. The signing secret
// lives for the process lifetime unless TOKEN_SECRET pins it, so tokens do
// not survive a restart.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &TokenService{secret: key, now: time.Now}
}

// Issue signs a token carrying the user's id, username and role, valid for
// 24 hours.
func (s *TokenService) Issue(u User) (string, error) {
	claims := TokenClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(s.now().Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry and returns the decoded claims.
// Any failure mode (tampered, malformed, expired, wrong algorithm) comes
// back as an authorization error.
func (s *TokenService) Verify(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return nil, errUnauthorized("invalid or expired token")
	}
	if _, err := ParseUserRole(claims.Role); err != nil {
		return nil, errUnauthorized("invalid or expired token")
	}
	return claims, nil
}

// bearerToken extracts the credential from an Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
