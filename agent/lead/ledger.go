// Package lead keeps the durable collection of extracted leads, one per
// (user, page) pair.
package lead

import (
	"fmt"
	"sync"

	"github.com/nepwoop/leadflow/agent/contract"
	"github.com/nepwoop/leadflow/pkg/blob"
)

const storeKey = "leads"

// Lead is the merged superset of fields ever extracted for one pair, plus
// the identifying user_id and page_id.
type Lead map[string]any

// Ledger guards the lead collection with a coarse lock; every mutation
// persists the whole collection.
type Ledger struct {
	mu    sync.Mutex
	store blob.Store
	leads []Lead
}

func NewLedger(store blob.Store) (*Ledger, error) {
	l := &Ledger{store: store}
	if _, err := store.Load(storeKey, &l.leads); err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}
	return l, nil
}

// Upsert merges rec into the lead for (userID, pageID), creating it when
// absent. Fields present in rec win; fields absent from rec are preserved.
// An empty record still creates a shell lead so first contact is recorded.
func (l *Ledger) Upsert(userID, pageID string, rec contract.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.leads {
		if l.leads[i]["user_id"] == userID && l.leads[i]["page_id"] == pageID {
			for k, v := range rec {
				l.leads[i][k] = v
			}
			l.leads[i]["user_id"] = userID
			l.leads[i]["page_id"] = pageID
			return l.persistLocked()
		}
	}

	created := Lead{}
	for k, v := range rec {
		created[k] = v
	}
	created["user_id"] = userID
	created["page_id"] = pageID
	l.leads = append(l.leads, created)
	return l.persistLocked()
}

// All returns a copy of every lead.
func (l *Ledger) All() []Lead {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Lead, 0, len(l.leads))
	for _, lead := range l.leads {
		copied := make(Lead, len(lead))
		for k, v := range lead {
			copied[k] = v
		}
		out = append(out, copied)
	}
	return out
}

// Clear empties the collection and removes its backing storage.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.leads = nil
	if err := l.store.Delete(storeKey); err != nil {
		return fmt.Errorf("clear leads: %w", err)
	}
	return nil
}

func (l *Ledger) persistLocked() error {
	if err := l.store.Save(storeKey, l.leads); err != nil {
		return fmt.Errorf("persist leads: %w", err)
	}
	return nil
}
