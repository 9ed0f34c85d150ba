package databases

import (
	"context"
	"encoding/json"
)

// PreferencesDatabase contains the methods to use with per-user preferences
type PreferencesDatabase interface {
	Get(ctx context.Context, username string) (map[string]interface{}, error)
	Set(ctx context.Context, username string, prefs map[string]interface{}) error
}

type preferencesDatabase struct {
	store ChatStore
}

// NewPreferencesDatabase initializes a new instance of the preferences store
func NewPreferencesDatabase(store ChatStore) PreferencesDatabase {
	return &preferencesDatabase{
		store: store,
	}
}

func prefsKey(username string) string {
	return "user:" + username + ":prefs"
}

func (p *preferencesDatabase) Get(ctx context.Context, username string) (map[string]interface{}, error) {
	raw, err := p.store.Get(ctx, prefsKey(username))
	if err != nil {
		return nil, err
	}
	prefs := map[string]interface{}{}
	if raw == "" {
		return prefs, nil
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (p *preferencesDatabase) Set(ctx context.Context, username string, prefs map[string]interface{}) error {
	b, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, prefsKey(username), string(b))
}
