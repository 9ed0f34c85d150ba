package models

// UserPreferences is the per-user preferences blob, stored as opaque JSON.
type UserPreferences struct {
	Username string                 `json:"username"`
	Prefs    map[string]interface{} `json:"prefs"`
}
