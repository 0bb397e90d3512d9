// Package session owns per-(page, user) turn history and drives the
// message pipeline: append, render, complete, extract, upsert, strip.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nepwoop/leadflow/agent/contract"
	"github.com/nepwoop/leadflow/agent/extract"
	"github.com/nepwoop/leadflow/agent/prompt"
	"github.com/nepwoop/leadflow/agent/tenant"
	"github.com/nepwoop/leadflow/pkg/blob"
)

const storeKey = "conversations"

// Completer is the completion capability consumed per message.
type Completer interface {
	Complete(ctx context.Context, prompt string, backend string) string
}

// LeadSink receives extracted records.
type LeadSink interface {
	Upsert(userID, pageID string, rec contract.Record) error
}

// TenantSource resolves the tenant config owning a page.
type TenantSource interface {
	ByPage(pageID string) (tenant.Config, bool)
}

// MessageRequest is one inbound chat message.
type MessageRequest struct {
	PageID          string
	UserID          string
	Message         string
	Backend         string
	NewConversation bool
}

// Manager serializes mutations per conversation key. The inner mutex guards
// the maps; a per-key mutex serializes the full message pipeline for one
// (page, user) pair, including the completion call, so concurrent messages
// for the same pair never interleave read-modify-write cycles.
type Manager struct {
	mu            sync.Mutex
	saveMu        sync.Mutex
	locks         map[string]*sync.Mutex
	conversations map[string][]contract.Turn

	store     blob.Store
	tenants   TenantSource
	completer Completer
	leads     LeadSink

	now func() time.Time
}

func NewManager(store blob.Store, tenants TenantSource, completer Completer, leads LeadSink) (*Manager, error) {
	if store == nil {
		return nil, errors.New("blob store is required")
	}
	if tenants == nil {
		return nil, errors.New("tenant source is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if leads == nil {
		return nil, errors.New("lead sink is required")
	}

	m := &Manager{
		locks:         make(map[string]*sync.Mutex),
		conversations: make(map[string][]contract.Turn),
		store:         store,
		tenants:       tenants,
		completer:     completer,
		leads:         leads,
		now:           time.Now,
	}
	if _, err := store.Load(storeKey, &m.conversations); err != nil {
		return nil, err
	}
	if m.conversations == nil {
		m.conversations = make(map[string][]contract.Turn)
	}
	return m, nil
}

// HandleMessage runs the per-message algorithm and returns the user-visible
// reply. The user turn is persisted before the completion call is issued, so
// a crash mid-request never loses the user's message.
func (m *Manager) HandleMessage(ctx context.Context, req MessageRequest) (string, error) {
	cfg, ok := m.tenants.ByPage(req.PageID)
	if !ok {
		return "", contract.ErrSetupRequired
	}

	key := convKey(req.PageID, req.UserID)
	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if req.NewConversation {
		m.resetKey(key)
		m.persist()
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		// An empty poll on an existing conversation replays the last visible
		// bot turn without mutating history. The reset above runs first, so
		// an explicit new-conversation request clears history even when the
		// message itself is rejected.
		if visible, ok := m.lastBotVisible(key); ok {
			return visible, nil
		}
		return "", contract.ErrEmptyMessage
	}

	turns := m.appendTurn(key, contract.NewTurn(contract.RoleUser, message, m.now()))
	m.persist()

	rendered := prompt.Render(cfg, turns, m.now())
	log.Info().Str("user_id", req.UserID).Str("page_id", req.PageID).
		Str("backend", req.Backend).Msg("requesting completion")
	reply := m.completer.Complete(ctx, rendered, req.Backend)

	m.appendTurn(key, contract.NewTurn(contract.RoleBot, reply, m.now()))
	m.persist()

	if rec, ok := extract.Parse(reply); ok {
		if err := m.leads.Upsert(req.UserID, req.PageID, rec); err != nil {
			log.Error().Err(err).Str("user_id", req.UserID).Str("page_id", req.PageID).
				Msg("lead upsert failed")
		}
	}

	return extract.Strip(reply), nil
}

// History returns a copy of the turn sequence for one pair.
func (m *Manager) History(pageID, userID string) []contract.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.conversations[convKey(pageID, userID)]
	out := make([]contract.Turn, len(turns))
	copy(out, turns)
	return out
}

// ResetTenant clears every session whose key is prefixed by the tenant's
// page id. Called when a tenant replaces its config.
func (m *Manager) ResetTenant(pageID string) {
	prefix := pageID + "_"

	m.mu.Lock()
	for key := range m.conversations {
		if strings.HasPrefix(key, prefix) {
			delete(m.conversations, key)
		}
	}
	m.mu.Unlock()

	m.persist()
}

// ResetAll clears every session.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	m.conversations = make(map[string][]contract.Turn)
	m.mu.Unlock()

	m.persist()
}

func convKey(pageID, userID string) string {
	return pageID + "_" + userID
}

func (m *Manager) keyLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

func (m *Manager) appendTurn(key string, turn contract.Turn) []contract.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[key] = append(m.conversations[key], turn)
	out := make([]contract.Turn, len(m.conversations[key]))
	copy(out, m.conversations[key])
	return out
}

func (m *Manager) resetKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[key] = []contract.Turn{}
}

func (m *Manager) lastBotVisible(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.conversations[key]
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == contract.RoleBot {
			return extract.Strip(turns[i].Text), true
		}
	}
	return "", false
}

// persist writes the whole conversation map. Snapshot and write happen under
// one lock: a delayed write must never clobber the blob with a stale snapshot
// missing another session's already-persisted turns. Persistence failures
// degrade to a log line; they never fail the request.
func (m *Manager) persist() {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	snapshot := make(map[string][]contract.Turn, len(m.conversations))
	for k, v := range m.conversations {
		snapshot[k] = v
	}
	m.mu.Unlock()

	if err := m.store.Save(storeKey, snapshot); err != nil {
		log.Error().Err(err).Msg("failed to persist conversations")
	}
}
