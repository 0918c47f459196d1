package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Principal is the authenticated caller of a request
type Principal struct {
	Subject string
	Roles   []string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for subject. The token command prints one.
func IssueToken(secret []byte, subject string, roles ...string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Roles:            roles,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	})
	return token.SignedString(secret)
}

// authenticate attaches a Principal for a valid bearer token.
// Missing or invalid tokens leave the request anonymous.
func authenticate(secret []byte, l *zap.Logger) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || len(secret) == 0 {
			c.Next()
			return
		}

		var cl claims
		if _, err := parser.ParseWithClaims(raw, &cl, keyFunc); err != nil {
			l.Debug("Ignoring invalid token.", zap.Error(err))
			c.Next()
			return
		}

		ctx := WithPrincipal(c.Request.Context(), Principal{Subject: cl.Subject, Roles: cl.Roles})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// protect rejects anonymous requests to the given routes.
// An entry matches either the registered route pattern or the literal path.
func protect(routes []string) gin.HandlerFunc {
	protected := make(map[string]bool, len(routes))
	for _, r := range routes {
		protected[r] = true
	}

	return func(c *gin.Context) {
		if !protected[c.FullPath()] && !protected[c.Request.URL.Path] {
			c.Next()
			return
		}
		if _, ok := PrincipalFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
