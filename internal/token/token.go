// Package token mints and verifies the signed access tokens that gate
// room entry at the signaling layer.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL bounds token life when the builder is not told otherwise.
const DefaultTTL = 6 * time.Hour

// VideoGrant describes what the holder may do in a room.
type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	CanPublish   bool   `json:"canPublish,omitempty"`
	CanSubscribe bool   `json:"canSubscribe,omitempty"`
}

// Claims is the JWT payload carried by an access token.
type Claims struct {
	Name  string     `json:"name,omitempty"`
	Video VideoGrant `json:"video"`
	jwt.RegisteredClaims
}

// Identity returns the participant identity the token was issued to.
func (c *Claims) Identity() string {
	return c.Subject
}

// AccessToken accumulates identity and grants, then signs them.
type AccessToken struct {
	apiKey    string
	apiSecret string
	identity  string
	name      string
	ttl       time.Duration
	grant     VideoGrant
}

// New starts a token for the given API key pair.
func New(apiKey, apiSecret string) *AccessToken {
	return &AccessToken{apiKey: apiKey, apiSecret: apiSecret, ttl: DefaultTTL}
}

// WithIdentity sets the participant identity (the JWT subject).
func (t *AccessToken) WithIdentity(identity string) *AccessToken {
	t.identity = identity
	return t
}

// WithName sets the participant display name.
func (t *AccessToken) WithName(name string) *AccessToken {
	t.name = name
	return t
}

// WithTTL overrides DefaultTTL.
func (t *AccessToken) WithTTL(ttl time.Duration) *AccessToken {
	t.ttl = ttl
	return t
}

// WithGrant attaches the room grant.
func (t *AccessToken) WithGrant(grant VideoGrant) *AccessToken {
	t.grant = grant
	return t
}

// JWT signs the token with HS256 and returns the compact encoding.
func (t *AccessToken) JWT() (string, error) {
	if t.apiKey == "" || t.apiSecret == "" {
		return "", errors.New("token: api key and secret required")
	}
	if t.identity == "" {
		return "", errors.New("token: identity required")
	}
	now := time.Now()
	claims := Claims{
		Name:  t.name,
		Video: t.grant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.apiKey,
			Subject:   t.identity,
			ID:        t.identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.apiSecret))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks raw against the secret and returns its claims. Expired or
// tampered tokens fail.
func Verify(raw, apiSecret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(apiSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return claims, nil
}
