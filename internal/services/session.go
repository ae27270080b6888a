package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionState is the authentication state of the console
type SessionState string

const (
	LoggedOut SessionState = "logged_out"
	LoggedIn  SessionState = "logged_in"
)

// SessionGate tracks whether the console is logged in.
// Login performs no credential verification. Logout never discards domain data.
type SessionGate struct {
	mu        sync.RWMutex
	state     SessionState
	epoch     int64
	jwtSecret string
	ttl       time.Duration
	now       func() time.Time
}

// NewSessionGate creates a gate in the LoggedOut state
func NewSessionGate(jwtSecret string, ttl time.Duration, clock func() time.Time) *SessionGate {
	if clock == nil {
		clock = time.Now
	}
	return &SessionGate{
		state:     LoggedOut,
		jwtSecret: jwtSecret,
		ttl:       ttl,
		now:       clock,
	}
}

// Login moves the gate to LoggedIn and issues a token bound to the new session
func (g *SessionGate) Login() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != LoggedIn {
		g.state = LoggedIn
		g.epoch++
	}

	return g.generateJWT(g.epoch)
}

// Logout moves the gate to LoggedOut; tokens issued earlier stop validating
func (g *SessionGate) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == LoggedIn {
		g.state = LoggedOut
		g.epoch++
	}
}

// IsLoggedIn reports the current state
func (g *SessionGate) IsLoggedIn() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state == LoggedIn
}

// State returns the current state
func (g *SessionGate) State() SessionState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// generateJWT generates a JWT token for a session epoch
func (g *SessionGate) generateJWT(epoch int64) (string, error) {
	now := g.now()
	claims := jwt.MapClaims{
		"session": epoch,
		"iat":     now.Unix(),
		"exp":     now.Add(g.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(g.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT checks that the token belongs to the current logged-in session
func (g *SessionGate) ValidateJWT(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(g.jwtSecret), nil
	}, jwt.WithTimeFunc(g.now))
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("invalid token claims")
	}

	epoch, ok := claims["session"].(float64)
	if !ok {
		return fmt.Errorf("session not found in token")
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.state != LoggedIn || int64(epoch) != g.epoch {
		return fmt.Errorf("session is no longer active")
	}

	return nil
}
