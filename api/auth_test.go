package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-payments/config"
	"go-payments/payments"
)

var testSecret = []byte("test-secret")

func protectedRouter(svc *serviceMock) *gin.Engine {
	return NewRouter(Options{
		Service: svc,
		Auth: config.AuthConfig{
			JWTSecret:       string(testSecret),
			ProtectedRoutes: []string{"/api/payment/bank-transfer"},
		},
	})
}

func TestAuth_ProtectedRoute(t *testing.T) {
	valid, err := IssueToken(testSecret, "ops-user", "payments")
	require.NoError(t, err)
	forged, err := IssueToken([]byte("other-secret"), "ops-user")
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	var tests = []struct {
		name   string
		header string
		code   int
	}{
		{name: "anonymous", code: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + valid, code: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid, code: http.StatusOK},
		{name: "wrong secret", header: "Bearer " + forged, code: http.StatusUnauthorized},
		{name: "unsigned token", header: "Bearer " + none, code: http.StatusUnauthorized},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", code: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not.a.jwt", code: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(serviceMock)
			svc.On("ProcessBankTransfer", mock.MatchedBy(func(ctx context.Context) bool {
				p, ok := ctx.Value(principalKey{}).(Principal)
				return ok && p.Subject == "ops-user" && len(p.Roles) == 1 && p.Roles[0] == "payments"
			}), mock.Anything).Return(&payments.TransferSummary{TransferID: "t1"}, nil).Maybe()

			var headers []string
			if tt.header != "" {
				headers = []string{"Authorization", tt.header}
			}
			rr := serve(t, protectedRouter(svc), http.MethodPost, "/api/payment/bank-transfer", map[string]any{}, headers...)
			require.Equal(t, tt.code, rr.Code, rr.Body.String())
		})
	}
}

func TestAuth_OpenRoutesIgnoreInvalidTokens(t *testing.T) {
	svc := new(serviceMock)
	svc.On("GetBankTransfer", mock.Anything, "t1").Return(&payments.TransferSummary{TransferID: "t1"}, nil).Once()

	rr := serve(t, protectedRouter(svc), http.MethodGet, "/api/payment/bank-transfer/t1", nil,
		"Authorization", "Bearer not.a.jwt")
	require.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestAuth_MatchesRoutePattern(t *testing.T) {
	svc := new(serviceMock)
	r := NewRouter(Options{
		Service: svc,
		Auth: config.AuthConfig{
			JWTSecret:       string(testSecret),
			ProtectedRoutes: []string{"/api/payment/bank-transfer/:transferId"},
		},
	})

	rr := serve(t, r, http.MethodGet, "/api/payment/bank-transfer/t1", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "GetBankTransfer", mock.Anything, mock.Anything)
}

func TestPrincipalFromContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	require.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Subject: "svc"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "svc", p.Subject)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer  abc ")
	require.True(t, ok)
	require.Equal(t, "abc", tok)

	_, ok = bearerToken("Bearer")
	require.False(t, ok)
	_, ok = bearerToken("Bearer   ")
	require.False(t, ok)
}
