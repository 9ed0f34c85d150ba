package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/streamroom/streamroom-api/api"
	"github.com/streamroom/streamroom-api/config"
	"github.com/streamroom/streamroom-api/models"
)

// AuthHandler issues identity tokens for the chat surface
type AuthHandler struct {
	Auth       api.Auth
	AdminUsers []string
}

// LoginRequest is the login payload; identity is asserted from the username
// alone
type LoginRequest struct {
	Username string `json:"username"`
}

// LoginResponse carries the signed token and the identity it asserts
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginHandler returns a signed identity assertion for the given username.
// Usernames on the admin list receive the admin role.
func (h AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req LoginRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		config.ErrorStatus("failed to decode login request", http.StatusBadRequest, w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		config.ErrorStatus("username must not be empty", http.StatusBadRequest, w, nil)
		return
	}

	role := models.RoleUser
	for _, admin := range h.AdminUsers {
		if strings.EqualFold(admin, req.Username) {
			role = models.RoleAdmin
			break
		}
	}

	token, err := h.Auth.IssueToken(req.Username, role)
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(LoginResponse{Token: token, Username: req.Username, Role: role})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
