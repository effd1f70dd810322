// Package jwt encodes and decodes the signed tokens handed to clients after
// login. Tokens carry the username as "sub" and the user id as "id".
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Decode failures. Every error returned by Decode wraps exactly one of them.
var (
	ErrTokenExpired = errors.New("jwt: token expired")
	ErrTokenInvalid = errors.New("jwt: token invalid")
)

// Kind tells access and refresh tokens apart. It is signed into the "typ"
// claim so one can never be accepted in place of the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the claim set of both access and refresh tokens.
type Claims struct {
	UserID string `json:"id"`
	Type   Kind   `json:"typ"`
	gojwt.RegisteredClaims
}

// Username returns the subject claim.
func (c *Claims) Username() string {
	return c.Subject
}

// Token is a signed token together with its lifetime.
type Token struct {
	Value     string
	ExpiresAt time.Time
	TTL       time.Duration
}

// Codec signs and verifies tokens with a shared HMAC secret.
type Codec struct {
	cfg    Config
	method gojwt.SigningMethod
	key    []byte
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	c := &Codec{
		cfg:    cfg,
		method: cfg.signingMethod(),
		key:    []byte(cfg.SecretKey),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IssueAccess mints an access token for the user.
func (c *Codec) IssueAccess(username, userID string) (Token, error) {
	return c.Encode(KindAccess, username, userID, c.cfg.AccessTTL())
}

// IssueRefresh mints a refresh token for the user.
func (c *Codec) IssueRefresh(username, userID string) (Token, error) {
	return c.Encode(KindRefresh, username, userID, c.cfg.RefreshTTL())
}

// Encode signs {sub, id, typ, iat, exp} with exp = now + ttl. Timestamps
// have second precision, so two calls within the same second yield the
// same token.
func (c *Codec) Encode(kind Kind, username, userID string, ttl time.Duration) (Token, error) {
	issuedAt := gojwt.NewNumericDate(c.now())
	expiresAt := gojwt.NewNumericDate(issuedAt.Add(ttl))

	claims := &Claims{
		UserID: userID,
		Type:   kind,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   username,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	signed, err := gojwt.NewWithClaims(c.method, claims).SignedString(c.key)
	if err != nil {
		return Token{}, fmt.Errorf("jwt: sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expiresAt.Time, TTL: ttl}, nil
}

// Decode verifies the signature, algorithm and expiry of token and returns
// its claims. Tokens without a subject or user id, or of a kind other than
// kind, are invalid.
func (c *Codec) Decode(token string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, c.keyFunc, c.parserOptions()...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing sub or id claim", ErrTokenInvalid)
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, kind, claims.Type)
	}
	return claims, nil
}

// AccessTTL is the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTTL() }

// RefreshTTL is the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL() }

func (c *Codec) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != c.method.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return c.key, nil
}

func (c *Codec) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{c.method.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(c.now),
	}
	if c.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(c.cfg.Issuer))
	}
	return opts
}
