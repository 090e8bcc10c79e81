package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that cannot be trusted.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the token claims the service relies on.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens issued by the identity provider.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier builds a verifier for tokens signed with secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}, nil
}

// Verify parses the token and returns the caller it identifies.
func (v *Verifier) Verify(token string) (Caller, error) {
	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Caller{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role := strings.ToUpper(claims.Role)
	if role != RoleAdmin {
		role = RoleUser
	}
	return Caller{Subject: claims.Subject, Role: role}, nil
}

// Sign issues a token for c. It exists for local tooling and tests; production tokens
// come from the identity provider.
func (v *Verifier) Sign(c Caller, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = c.Subject
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: c.Role, RegisteredClaims: claims})
	return token.SignedString(v.secret)
}
