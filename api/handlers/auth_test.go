package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamroom/streamroom-api/api"
	"github.com/streamroom/streamroom-api/api/handlers"
	"github.com/streamroom/streamroom-api/models"
)

func TestAuthHandler_LoginUserRole(t *testing.T) {
	auth := api.Auth{Secret: []byte("test-secret")}
	h := handlers.AuthHandler{Auth: auth, AdminUsers: []string{"admin"}}

	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"username": "alice"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, models.RoleUser, resp.Role)

	identity, err := auth.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.False(t, identity.IsAdmin())
}

func TestAuthHandler_LoginAdminRole(t *testing.T) {
	auth := api.Auth{Secret: []byte("test-secret")}
	h := handlers.AuthHandler{Auth: auth, AdminUsers: []string{"admin", "moderator"}}

	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"username": "Moderator"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.RoleAdmin, resp.Role)

	identity, err := auth.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestAuthHandler_LoginEmptyUsername(t *testing.T) {
	h := handlers.AuthHandler{Auth: api.Auth{Secret: []byte("test-secret")}}

	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`{"username": "   "}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_LoginMalformedBody(t *testing.T) {
	h := handlers.AuthHandler{Auth: api.Auth{Secret: []byte("test-secret")}}

	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(`not json`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
