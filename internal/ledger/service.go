package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"fleetworks/internal/category"
	"fleetworks/internal/ledger/metrics"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/requestcontext"
)

// Service enforces the ledger invariants: bounded field names, recognized
// value types, non-empty provenance comments, and one history entry per fact
// mutation inside one transaction.
type Service struct {
	facts   FactStore
	history HistoryStore
	txr     TxRunner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(facts FactStore, history HistoryStore, txr TxRunner, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if facts == nil || history == nil || txr == nil {
		return nil, fmt.Errorf("ledger stores and tx runner are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{facts: facts, history: history, txr: txr, logger: logger, metrics: m}, nil
}

// Facts returns the fact store for read paths.
func (s *Service) Facts() FactStore { return s.facts }

// RunInTx exposes the ledger's transactional boundary so callers can combine
// fact changes with their own writes (e.g. a task status transition).
func (s *Service) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.txr.RunInTx(ctx, fn)
}

// Record validates and appends one history entry. Oversized field names are
// truncated at the boundary, never silently: the stored comment notes the
// truncation for audit purposes and the event is logged and counted.
// Unrecognized legacy value-type tags go through the documented coercion.
func (s *Service) Record(ctx context.Context, entry HistoryEntry) (*HistoryEntry, error) {
	if entry.AssetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}
	if entry.FieldName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "field name is required")
	}
	if entry.Comment == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "history comment must describe provenance")
	}
	if entry.Actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}

	if len(entry.FieldName) > category.MaxFieldNameLength {
		original := len(entry.FieldName)
		entry.FieldName = entry.FieldName[:category.MaxFieldNameLength]
		entry.Comment = fmt.Sprintf("%s [field name truncated from %d to %d characters]",
			entry.Comment, original, category.MaxFieldNameLength)
		s.logger.WarnContext(ctx, "field name truncated at ledger boundary",
			"asset_id", entry.AssetID,
			"field", entry.FieldName,
			"original_length", original,
		)
		s.metrics.ObserveTruncation()
	}

	vt, coerced, err := CoerceValueType(string(entry.ValueType))
	if err != nil {
		return nil, err
	}
	if coerced {
		s.logger.WarnContext(ctx, "legacy value type coerced",
			"asset_id", entry.AssetID,
			"field", entry.FieldName,
			"from", string(entry.ValueType),
			"to", string(vt),
		)
		s.metrics.ObserveCoercion()
	}
	entry.ValueType = vt

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}

	if err := s.history.Append(ctx, &entry); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWrite, "append history entry")
	}
	s.metrics.ObserveEntry(string(entry.Actor.Kind))
	return &entry, nil
}

// History returns entries for an asset, newest first, optionally filtered to
// one field.
func (s *Service) History(ctx context.Context, assetID domain.AssetID, fieldName string) ([]*HistoryEntry, error) {
	return s.history.List(ctx, assetID, fieldName)
}

// Apply performs one fact mutation: reads the prior value, upserts the fact,
// and appends the paired history entry. When no transaction is already bound
// to ctx the whole change runs in its own one, so a history failure can
// never leave a bare fact mutation behind.
func (s *Service) Apply(ctx context.Context, change FactChange) (*Fact, error) {
	var applied *Fact
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		fact, err := s.apply(ctx, change)
		if err != nil {
			return err
		}
		applied = fact
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// ApplyInTx is Apply for callers already inside a RunInTx block.
func (s *Service) ApplyInTx(ctx context.Context, change FactChange) (*Fact, error) {
	return s.apply(ctx, change)
}

func (s *Service) apply(ctx context.Context, change FactChange) (*Fact, error) {
	if change.Value.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "fact change requires a value")
	}

	now := requestcontext.Now(ctx)

	prior, err := s.facts.Find(ctx, change.AssetID, change.CategoryID)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}

	var oldValue *string
	if prior.HasValue() {
		v := prior.Value.String()
		oldValue = &v
	}

	fact := &Fact{
		AssetID:    change.AssetID,
		CategoryID: change.CategoryID,
		FieldName:  change.FieldName,
		Value:      change.Value,
		FirstDue:   change.FirstDue,
		UpdatedAt:  now,
		SyncStatus: SyncNever,
	}
	if prior != nil {
		fact.SyncStatus = prior.SyncStatus
		fact.SyncAt = prior.SyncAt
	}
	if change.MarkSynced {
		fact.SyncStatus = SyncOK
		fact.SyncAt = &now
		fact.SyncDetail = ""
	}

	entry := HistoryEntry{
		AssetID:   change.AssetID,
		FieldName: change.FieldName,
		ValueType: change.Value.Type,
		OldValue:  oldValue,
		NewValue:  change.Value.String(),
		Comment:   change.Comment,
		Actor:     change.Actor,
		CreatedAt: now,
	}
	// History first: if the audit row cannot be written the fact must not
	// change either. Record owns field-name truncation, so the fact takes
	// its field name from the recorded entry and the pair cannot diverge.
	recorded, err := s.Record(ctx, entry)
	if err != nil {
		return nil, err
	}
	fact.FieldName = recorded.FieldName
	if err := s.facts.Upsert(ctx, fact); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWrite, "upsert maintenance fact")
	}
	s.metrics.ObserveFactWrite()
	return fact, nil
}

// MarkSyncError records a failed external sync. The prior fact value is
// preserved: failure degrades confidence, it does not erase data.
func (s *Service) MarkSyncError(ctx context.Context, assetID domain.AssetID, categoryID domain.CategoryID, detail string) error {
	return s.facts.MarkSyncError(ctx, assetID, categoryID, detail, requestcontext.Now(ctx))
}
