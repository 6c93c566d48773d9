package ledger

import (
	"context"
	"sync"
	"time"

	"fleetworks/pkg/domain"
)

type factKey struct {
	asset    domain.AssetID
	category domain.CategoryID
}

// InMemoryLedger backs unit tests and local development with the same
// all-or-nothing semantics as the Postgres stores: RunInTx snapshots state
// and restores it when the callback fails.
type InMemoryLedger struct {
	mu      sync.Mutex
	facts   map[factKey]Fact
	history []HistoryEntry
	nextID  int64
	inTx    bool
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{facts: make(map[factKey]Fact), nextID: 1}
}

func (s *InMemoryLedger) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.inTx {
		// Already inside a transaction; join it.
		s.mu.Unlock()
		return fn(ctx)
	}
	s.inTx = true

	factsSnapshot := make(map[factKey]Fact, len(s.facts))
	for k, v := range s.facts {
		factsSnapshot[k] = v
	}
	historySnapshot := append([]HistoryEntry(nil), s.history...)
	idSnapshot := s.nextID
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = false
	if err != nil {
		s.facts = factsSnapshot
		s.history = historySnapshot
		s.nextID = idSnapshot
		return err
	}
	return nil
}

func (s *InMemoryLedger) Find(_ context.Context, assetID domain.AssetID, categoryID domain.CategoryID) (*Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facts[factKey{assetID, categoryID}]
	if !ok {
		return nil, ErrFactNotFound
	}
	return &f, nil
}

func (s *InMemoryLedger) ListByAsset(_ context.Context, assetID domain.AssetID) ([]*Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Fact
	for k, f := range s.facts {
		if k.asset == assetID {
			copied := f
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryLedger) Upsert(_ context.Context, fact *Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts[factKey{fact.AssetID, fact.CategoryID}] = *fact
	return nil
}

func (s *InMemoryLedger) MarkSyncError(_ context.Context, assetID domain.AssetID, categoryID domain.CategoryID, detail string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := factKey{assetID, categoryID}
	f, ok := s.facts[key]
	if !ok {
		f = Fact{AssetID: assetID, CategoryID: categoryID, UpdatedAt: at}
	}
	f.SyncStatus = SyncError
	f.SyncAt = &at
	f.SyncDetail = detail
	s.facts[key] = f
	return nil
}

func (s *InMemoryLedger) Append(_ context.Context, entry *HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	s.history = append(s.history, *entry)
	return nil
}

func (s *InMemoryLedger) List(_ context.Context, assetID domain.AssetID, fieldName string) ([]*HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*HistoryEntry
	// Appended in order; walk backwards for newest first.
	for i := len(s.history) - 1; i >= 0; i-- {
		e := s.history[i]
		if e.AssetID != assetID {
			continue
		}
		if fieldName != "" && e.FieldName != fieldName {
			continue
		}
		copied := e
		out = append(out, &copied)
	}
	return out, nil
}
