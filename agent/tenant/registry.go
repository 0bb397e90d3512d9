package tenant

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nepwoop/leadflow/pkg/blob"
)

const storeKey = "setups"

// Registry keeps tenant configs indexed by the operator's user id (the setup
// owner) and by page id (the chat key). Configs persist as one blob keyed by
// user id, the page index is derived.
type Registry struct {
	mu       sync.RWMutex
	store    blob.Store
	validate *validator.Validate
	byUser   map[string]Config
	byPage   map[string]Config
}

func NewRegistry(store blob.Store) (*Registry, error) {
	r := &Registry{
		store:    store,
		validate: validator.New(),
		byUser:   make(map[string]Config),
		byPage:   make(map[string]Config),
	}

	saved := make(map[string]Config)
	if _, err := store.Load(storeKey, &saved); err != nil {
		return nil, fmt.Errorf("load setups: %w", err)
	}
	for userID, cfg := range saved {
		if cfg.UserID == "" {
			cfg.UserID = userID
		}
		r.byUser[userID] = cfg
		if cfg.PageID != "" {
			r.byPage[cfg.PageID] = cfg
		}
	}

	return r, nil
}

// Save validates and replaces the config for its owning user, reindexes the
// page map and persists the whole collection.
func (r *Registry) Save(cfg Config) error {
	if err := r.validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid setup: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The user may have moved the agent to a different page; drop the stale
	// page index entry before reindexing.
	if prev, ok := r.byUser[cfg.UserID]; ok && prev.PageID != cfg.PageID {
		delete(r.byPage, prev.PageID)
	}

	r.byUser[cfg.UserID] = cfg
	r.byPage[cfg.PageID] = cfg

	snapshot := make(map[string]Config, len(r.byUser))
	for k, v := range r.byUser {
		snapshot[k] = v
	}
	if err := r.store.Save(storeKey, snapshot); err != nil {
		return fmt.Errorf("persist setups: %w", err)
	}
	return nil
}

func (r *Registry) ByUser(userID string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.byUser[userID]
	return cfg, ok
}

func (r *Registry) ByPage(pageID string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.byPage[pageID]
	return cfg, ok
}
