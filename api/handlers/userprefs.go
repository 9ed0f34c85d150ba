package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/streamroom/streamroom-api/api"
	"github.com/streamroom/streamroom-api/config"
	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/models"
)

// UserPreferences exported for testing purposes
type UserPreferences struct {
	DB databases.PreferencesDatabase
}

// GetMeHandler returns the authenticated user's profile and stored
// preferences
func (u UserPreferences) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	identity := api.IdentityFromContext(r.Context())

	prefs, err := u.DB.Get(ctx, identity.Username)
	if err != nil {
		config.ErrorStatus("failed to get user preferences", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.UserPreferences{Username: identity.Username, Prefs: prefs})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateMeHandler merges the submitted keys into the authenticated user's
// stored preferences; keys absent from the payload are left untouched
func (u UserPreferences) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	identity := api.IdentityFromContext(r.Context())

	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		config.ErrorStatus("failed to decode preferences", http.StatusBadRequest, w, err)
		return
	}

	prefs, err := u.DB.Get(ctx, identity.Username)
	if err != nil {
		config.ErrorStatus("failed to get user preferences", http.StatusInternalServerError, w, err)
		return
	}
	for k, v := range patch {
		prefs[k] = v
	}
	if err := u.DB.Set(ctx, identity.Username, prefs); err != nil {
		config.ErrorStatus("failed to store user preferences", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.UserPreferences{Username: identity.Username, Prefs: prefs})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
