package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// TokenTTL is the lifetime of an issued identity token
const TokenTTL = 24 * time.Hour

// Claims is the JWT claim set carried by an identity assertion
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and verifies identity assertions. The chat core and the admin
// surface both trust the resulting {username, role} for the lifetime of a
// connection.
type Auth struct {
	Secret []byte
}

// IssueToken signs an identity assertion for the given username and role
func (a Auth) IssueToken(username, role string) (string, error) {
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

// VerifyToken parses and validates a token, returning the asserted identity
func (a Auth) VerifyToken(tokenString string) (*models.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &models.Identity{Username: claims.Username, Role: claims.Role}, nil
}

// BearerToken extracts the bearer token from an Authorization header or the
// token query parameter, empty when absent
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// Middleware requires a valid identity assertion on the route and stores the
// identity in the request context
func (a Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		token := BearerToken(r)
		if token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		identity, err := a.VerifyToken(token)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", identity.Username)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// AdminOnly requires the authenticated identity to carry the admin role
func (a Auth) AdminOnly(next http.Handler) http.Handler {
	return a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		if identity == nil || !identity.IsAdmin() {
			zap.S().Warnw("forbidden",
				"url", r.URL,
				"user", identity)
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": "forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// WithIdentity stores an identity in the context
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity stored by the auth middleware,
// nil when the request is anonymous
func IdentityFromContext(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(identityContextKey).(*models.Identity)
	return identity
}
