// Package ledger persists the set of notification ids already surfaced to the
// user so the same server notification is never shown twice.
//
// Every operation degrades instead of failing: read errors behave as "not
// shown", write errors are handed to the ErrorRecorder and swallowed.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/ports"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/clock"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/sentinel"
)

// Tray is the slice of the OS notifier the ledger consults.
type Tray interface {
	ports.DeliveredLister
	Cancel(ctx context.Context, ids []string) error
}

type Ledger struct {
	mu       sync.Mutex
	store    ports.RecordStore
	tray     Tray
	recorder ports.ErrorRecorder
	logger   *slog.Logger
	clock    clock.Scheduler
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func WithErrorRecorder(recorder ports.ErrorRecorder) Option {
	return func(l *Ledger) {
		l.recorder = recorder
	}
}

func WithClock(c clock.Scheduler) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

func New(store ports.RecordStore, tray Tray, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if tray == nil {
		return nil, errors.New("notification tray is required")
	}

	l := &Ledger{
		store:  store,
		tray:   tray,
		logger: slog.Default(),
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// IsShown reports whether id was already surfaced. An id found only in the
// OS delivered list is written back to the ledger.
func (l *Ledger) IsShown(ctx context.Context, id string) bool {
	l.mu.Lock()
	ids, err := l.load(ctx)
	l.mu.Unlock()
	if err != nil {
		l.fail(ctx, "ledger_read", err)
	} else if slices.Contains(ids, id) {
		return true
	}

	delivered, err := l.tray.GetDelivered(ctx)
	if err != nil {
		l.fail(ctx, "tray_read", err)
		return false
	}
	for _, n := range delivered {
		if n.ID == id || n.NotificationID() == id {
			l.logger.DebugContext(ctx, "notification found in tray but not in ledger",
				"notification_id", id,
			)
			l.Add(ctx, id)
			return true
		}
	}
	return false
}

// Add records id as shown. Repeated calls keep a single entry. An
// undecodable record is replaced, starting again from an empty set.
func (l *Ledger) Add(ctx context.Context, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.load(ctx)
	if err != nil {
		l.fail(ctx, "ledger_read", err)
		if !errors.Is(err, sentinel.ErrInvalidState) {
			return
		}
		ids = nil
	}
	if slices.Contains(ids, id) {
		return
	}
	if err := l.save(ctx, append(ids, id)); err != nil {
		l.fail(ctx, "ledger_write", err)
	}
}

// MarkShown records id and cancels any OS notification for it that is still
// waiting to be displayed.
func (l *Ledger) MarkShown(ctx context.Context, id string) {
	l.Add(ctx, id)

	pending, err := l.tray.GetPending(ctx)
	if err != nil {
		l.fail(ctx, "tray_read", err)
		return
	}
	for _, n := range pending {
		if n.ID == id || n.NotificationID() == id {
			if err := l.tray.Cancel(ctx, []string{n.ID}); err != nil {
				l.fail(ctx, "tray_cancel", err)
			}
			return
		}
	}
}

// Prune keeps only the ids in current. An empty current set means the caller
// has not loaded its notifications yet, so nothing is removed.
func (l *Ledger) Prune(ctx context.Context, current []string) {
	if len(current) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.load(ctx)
	if err != nil {
		l.fail(ctx, "ledger_read", err)
		return
	}
	kept := slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		return !slices.Contains(current, id)
	})
	if len(kept) == len(ids) {
		return
	}
	if err := l.save(ctx, kept); err != nil {
		l.fail(ctx, "ledger_write", err)
		return
	}
	l.logger.DebugContext(ctx, "pruned shown notifications",
		"removed", len(ids)-len(kept),
		"kept", len(kept),
	)
}

// Clear deletes the ledger record.
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.DeleteByID(ctx, models.ShownLedgerRecordID); err != nil {
		l.fail(ctx, "ledger_delete", err)
	}
}

// Shown returns the persisted ids. Read failures yield an empty list.
func (l *Ledger) Shown(ctx context.Context) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids, err := l.load(ctx)
	if err != nil {
		l.fail(ctx, "ledger_read", err)
		return nil
	}
	return ids
}

func (l *Ledger) load(ctx context.Context) ([]string, error) {
	record, err := l.store.FindByID(ctx, models.ShownLedgerRecordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find shown ledger: %w", err)
	}
	if record == nil || len(record.Content) == 0 {
		return nil, nil
	}

	var content models.ShownLedgerContent
	if err := json.Unmarshal(record.Content, &content); err != nil {
		return nil, fmt.Errorf("decode shown ledger: %w: %w", sentinel.ErrInvalidState, err)
	}
	return dedupe(content.NotificationIDs), nil
}

func (l *Ledger) save(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	content, err := json.Marshal(models.ShownLedgerContent{NotificationIDs: ids})
	if err != nil {
		return fmt.Errorf("encode shown ledger: %w", err)
	}
	err = l.store.Save(ctx, &models.Record{
		ID:        models.ShownLedgerRecordID,
		Content:   content,
		UpdatedAt: l.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("save shown ledger: %w", err)
	}
	return nil
}

func (l *Ledger) fail(ctx context.Context, op string, err error) {
	l.logger.WarnContext(ctx, "shown ledger operation failed",
		"op", op,
		"error", err,
	)
	if l.recorder != nil {
		l.recorder.RecordError(op, err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
