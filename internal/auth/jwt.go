package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"notebookService/internal/apperr"
)

const invalidTokenMessage = "Unauthorized, invalid token"

// Principal represents the authenticated caller from JWT.
type Principal struct {
	Name      string // username
	ExpiresAt time.Time
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Claims is the token payload issued at login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify validates token and returns its principal. Every failure is Unauthenticated.
func (v *Verifier) Verify(token string) (*Principal, error) {
	if len(v.secret) == 0 {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, errors.New("jwt secret is empty"), invalidTokenMessage)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Unauthenticated(invalidTokenMessage)
	}

	tok, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, apperr.Wrap(apperr.KindUnauthenticated, err, invalidTokenMessage)
	}
	c, _ := tok.Claims.(*Claims)
	if c == nil {
		return nil, apperr.Unauthenticated(invalidTokenMessage)
	}
	name := c.Username
	if name == "" {
		name = c.Subject
	}
	if name == "" {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, errors.New("token names no user"), invalidTokenMessage)
	}
	p := &Principal{Name: name}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p, nil
}

// Issuer mints HS256 tokens for authenticated users.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer whose tokens expire after ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token naming username.
func (i *Issuer) Issue(username string) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := i.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", apperr.Unauthenticated("missing authorization")
	}
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.Unauthenticated("invalid authorization header")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", apperr.Unauthenticated("invalid authorization header")
	}
	return tok, nil
}

// ParseFromMD extracts and validates a Bearer JWT from gRPC metadata and returns a Principal.
func ParseFromMD(ctx context.Context, v *Verifier) (*Principal, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, apperr.Unauthenticated("missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return nil, apperr.Unauthenticated("missing authorization")
	}
	tok, err := BearerToken(vals[0])
	if err != nil {
		return nil, err
	}
	return v.Verify(tok)
}
