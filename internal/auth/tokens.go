package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default lifetimes used when the configured expiry string does not
// parse.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var expiryPattern = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseExpiry parses an `<integer><unit>` expiry string with units
// d, h, m, s. Unparsable values fall back to the given default
// instead of failing.
func ParseExpiry(value string, fallback time.Duration) time.Duration {
	match := expiryPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return fallback
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return fallback
	}
	switch match[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour
	case "h":
		return time.Duration(n) * time.Hour
	case "m":
		return time.Duration(n) * time.Minute
	case "s":
		return time.Duration(n) * time.Second
	}
	return fallback
}

// Claims is the access-token payload. Subject carries the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a TokenManager from configured expiry
// strings.
func NewTokenManager(secret, accessExpiry, refreshExpiry string) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  ParseExpiry(accessExpiry, DefaultAccessTTL),
		refreshTTL: ParseExpiry(refreshExpiry, DefaultRefreshTTL),
	}
}

// AccessTTL returns the access-token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the refresh-token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// Sign issues an access token for the user.
func (m *TokenManager) Sign(userID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature and expiry and returns the claims. The
// error is for logging only and must not reach response bodies.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// NewOpaqueToken returns a 128-hex-character random value for refresh
// tokens.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
