package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT names callers by the subject of an HS256 bearer token. The optional
// "name" claim becomes the display name.
func JWT(secret, issuer string) Identifier {
	return IdentifierFunc(func(r *http.Request) (Identity, error) {
		header := r.Header.Get("Authorization")
		if header == "" {
			return Identity{}, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
		}
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			return Identity{}, fmt.Errorf("%w: not a bearer token", ErrUnauthenticated)
		}
		return ParseToken(strings.TrimSpace(header[len("Bearer "):]), secret, issuer)
	})
}

// ParseToken validates token and returns the identity it carries. Tokens
// must carry an exp claim.
func ParseToken(token, secret, issuer string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrUnauthenticated
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = sub
	}
	return Identity{Login: sub, DisplayName: name}, nil
}

// IssueToken signs an HS256 token for login valid for ttl.
func IssueToken(secret, issuer, login, displayName string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": login,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	if displayName != "" {
		claims["name"] = displayName
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
