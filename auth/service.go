// Package auth derives a caller namespace from the bearer token the MCP
// middleware places in context. Pending device logins are partitioned by this
// namespace so one caller cannot see another's login pages.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/mcp-protocol/authorization"
)

// DefaultNamespace groups unauthenticated callers.
const DefaultNamespace = "default"

// namespaceClaims are tried in order against the token claims.
var namespaceClaims = []string{"email", "preferred_username", "sub"}

// Service extracts a namespace from a JWT without verifying it; the token was
// already verified by the transport middleware, here it only scopes state.
type Service struct {
	fallback string
}

func New() *Service {
	return &Service{fallback: DefaultNamespace}
}

// Namespace returns the caller namespace for ctx. Absent or unparseable
// tokens map to the fallback namespace rather than failing the call.
func (s *Service) Namespace(ctx context.Context) (string, error) {
	if s == nil {
		return DefaultNamespace, nil
	}
	value := ctx.Value(authorization.TokenKey)
	if value == nil {
		return s.fallback, nil
	}
	var token string
	switch v := value.(type) {
	case string:
		token = v
	case *authorization.Token:
		token = v.Token
	default:
		return "", fmt.Errorf("unsupported token type %T", value)
	}
	if ns := extractNamespace(token); ns != "" {
		return ns, nil
	}
	return s.fallback, nil
}

func extractNamespace(token string) string {
	var claims jwt.MapClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return ""
	}
	for _, name := range namespaceClaims {
		if v, _ := claims[name].(string); v != "" {
			return v
		}
	}
	return ""
}
