package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

var ErrInvalidToken = errors.New("invalid player token")

// PlayerClaims identify a seated player to the transports.
type PlayerClaims struct {
	SessionID string
	PlayerID  string
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 player tokens. A token binds one
// player id to one session.
type TokenService struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for player in session.
func (s *TokenService) Issue(sessionID, playerID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("token service is nil")
	}
	if sessionID == "" || playerID == "" {
		return "", fmt.Errorf("session and player are required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("token config is incomplete")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": playerID,
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": fmt.Sprintf("%d-%d", now.UnixNano(), rand.Int63()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks signature, issuer and expiry and returns the claims.
func (s *TokenService) Verify(raw string) (PlayerClaims, error) {
	if s == nil || s.secret == "" {
		return PlayerClaims{}, fmt.Errorf("token config is incomplete")
	}
	claims := jwt.MapClaims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return PlayerClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return PlayerClaims{}, fmt.Errorf("%w: wrong issuer", ErrInvalidToken)
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return PlayerClaims{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)
	if sub == "" || sid == "" {
		return PlayerClaims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	exp, _ := claims["exp"].(float64)
	return PlayerClaims{SessionID: sid, PlayerID: sub, ExpiresAt: time.Unix(int64(exp), 0)}, nil
}
