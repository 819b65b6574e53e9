// Package tracker owns the in-memory transaction collection and orchestrates
// create, update, delete, import and export against the validation engine
// and the persistence layer.
//
// The collection has exactly one writer. A mutex serializes operations so
// each one runs to completion before the next starts; there is no finer
// locking discipline to get right.
package tracker

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"exptrack/internal/config"
	"exptrack/internal/core"
	"exptrack/internal/log"
	"exptrack/internal/storage"
	"exptrack/internal/validate"
)

// Snapshot is the export/import payload: the full collection plus the
// taxonomy and computed totals for the receiving side.
type Snapshot struct {
	Version      string             `json:"version"`
	Timestamp    time.Time          `json:"timestamp"`
	Transactions []core.Transaction `json:"transactions"`
	Categories   config.Categories  `json:"categories"`
	Summary      core.Summary       `json:"summary"`
}

// Tracker is the transaction domain logic. Construct it with New and inject
// the collaborators; it holds no global state.
type Tracker struct {
	mu        sync.Mutex
	cfg       *config.Config
	store     *storage.Store
	validator *validate.Validator
	logger    *log.Logger

	// transactions is ordered newest-first by insertion.
	transactions []core.Transaction
	settings     map[string]string

	// creates counts successful creations for the backup cadence.
	creates int

	newID func() string
	now   func() time.Time
}

func New(cfg *config.Config, store *storage.Store, validator *validate.Validator, logger *log.Logger) *Tracker {
	return &Tracker{
		cfg:       cfg,
		store:     store,
		validator: validator,
		logger:    logger.WithComponent(log.ComponentTracker),
		settings:  map[string]string{},
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Load reads the persisted collection and settings into memory. Called once
// at startup before any mutation.
func (t *Tracker) Load() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.transactions = t.store.GetTransactions()
	t.settings = t.store.GetSettings()
	t.logger.Info("Loaded transactions",
		log.FieldCount, len(t.transactions))
}

// Create validates the raw fields and, on success, assigns id and timestamp,
// prepends the record and persists. Every Nth successful create also writes
// a backup snapshot and prunes old ones.
func (t *Tracker) Create(in core.Input) (core.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	in.Description = validate.Sanitize(in.Description)
	if result := t.validator.ValidateTransaction(in); !result.IsValid {
		return core.Transaction{}, &ValidationError{Fields: result.Errors}
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(in.Amount), 64)
	if err != nil {
		// Unreachable after the amount rule, kept as a guard.
		return core.Transaction{}, &ValidationError{Fields: map[string]string{"amount": "Please enter a valid number"}}
	}

	txn := core.Transaction{
		ID:          t.newID(),
		Type:        core.Type(in.Type),
		Date:        in.Date,
		Description: in.Description,
		Category:    in.Category,
		Amount:      amount,
		Timestamp:   t.now().UTC(),
	}

	t.transactions = append([]core.Transaction{txn}, t.transactions...)
	t.persist()

	t.creates++
	if t.creates%t.cfg.Backup.Every == 0 {
		t.backup()
	}

	t.logger.Info("Transaction created",
		log.FieldTransactionID, txn.ID,
		log.FieldType, string(txn.Type),
		log.FieldCategory, txn.Category,
		log.FieldAmount, txn.Amount)

	return txn, nil
}

// Update validates the raw fields and merges the whitelisted ones into the
// record with the given id, stamping updatedAt. Returns ErrNotFound when the
// id is absent.
func (t *Tracker) Update(id string, in core.Input) (core.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	in.Description = validate.Sanitize(in.Description)
	if result := t.validator.ValidateTransaction(in); !result.IsValid {
		return core.Transaction{}, &ValidationError{Fields: result.Errors}
	}

	idx := -1
	for i := range t.transactions {
		if t.transactions[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return core.Transaction{}, ErrNotFound
	}

	amount, _ := strconv.ParseFloat(strings.TrimSpace(in.Amount), 64)
	now := t.now().UTC()

	txn := t.transactions[idx]
	txn.Type = core.Type(in.Type)
	txn.Date = in.Date
	txn.Description = in.Description
	txn.Category = in.Category
	txn.Amount = amount
	txn.UpdatedAt = &now
	t.transactions[idx] = txn

	t.persist()

	t.logger.Info("Transaction updated", log.FieldTransactionID, id)
	return txn, nil
}

// Delete removes the matching record and reports whether anything was
// removed. Deleting an absent id is a no-op, not an error. Confirmation is
// the caller's responsibility; the operation itself is irreversible.
func (t *Tracker) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.transactions[:0]
	removed := false
	for _, txn := range t.transactions {
		if txn.ID == id {
			removed = true
			continue
		}
		kept = append(kept, txn)
	}
	if !removed {
		return false
	}
	t.transactions = kept
	t.persist()

	t.logger.Info("Transaction deleted", log.FieldTransactionID, id)
	return true
}

// Transactions returns a copy of the collection, newest first.
func (t *Tracker) Transactions() []core.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.Transaction(nil), t.transactions...)
}

// Filtered returns the records matching both filters, preserving order.
func (t *Tracker) Filtered(category string, typ core.Type) []core.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.Filter(t.transactions, category, typ)
}

// Summary recomputes the running totals.
func (t *Tracker) Summary() core.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.Summarize(t.transactions)
}

// CategoryTotals recomputes per-category sums, descending, for the chart.
func (t *Tracker) CategoryTotals(expenseOnly bool) []core.CategoryAmount {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.CategoryTotals(t.transactions, expenseOnly)
}

// Settings returns a copy of the stored user preferences.
func (t *Tracker) Settings() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.settings))
	for k, v := range t.settings {
		out[k] = v
	}
	return out
}

// SaveSetting stores one user preference and persists the settings map.
func (t *Tracker) SaveSetting(key, value string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings[key] = value
	return t.store.SaveSettings(t.settings)
}

// ExportSnapshot builds the full export payload.
func (t *Tracker) ExportSnapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Version:      t.cfg.App.Version,
		Timestamp:    t.now().UTC(),
		Transactions: append([]core.Transaction(nil), t.transactions...),
		Categories:   t.cfg.GetCategories(),
		Summary:      core.Summarize(t.transactions),
	}
}

// ExportFileName is the download name for an export created now.
func (t *Tracker) ExportFileName() string {
	return fmt.Sprintf("expense-tracker-data-%s.json", t.now().UTC().Format(core.DateLayout))
}

// importedTransaction mirrors core.Transaction with pointer fields so the
// structural check can tell a missing field from a zero one.
type importedTransaction struct {
	ID          *string    `json:"id"`
	Type        *string    `json:"type"`
	Date        *string    `json:"date"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Amount      *float64   `json:"amount"`
	Timestamp   time.Time  `json:"timestamp"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

func (it importedTransaction) complete() bool {
	for _, s := range []*string{it.ID, it.Type, it.Date, it.Description, it.Category} {
		if s == nil || *s == "" {
			return false
		}
	}
	return it.Amount != nil
}

// ImportSnapshot parses a bundle and, when it passes the structural check,
// wholesale-replaces the collection and persists. A rejected bundle leaves
// both the collection and the store untouched. It returns the number of
// imported transactions.
func (t *Tracker) ImportSnapshot(data []byte) (int, error) {
	var envelope struct {
		Transactions json.RawMessage `json:"transactions"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if envelope.Transactions == nil {
		return 0, fmt.Errorf("%w: missing transactions array", ErrMalformedImport)
	}

	var imported []importedTransaction
	if err := json.Unmarshal(envelope.Transactions, &imported); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	transactions := make([]core.Transaction, 0, len(imported))
	for i, it := range imported {
		if !it.complete() {
			return 0, fmt.Errorf("%w: transaction %d is missing required fields", ErrMalformedImport, i)
		}
		transactions = append(transactions, core.Transaction{
			ID:          *it.ID,
			Type:        core.Type(*it.Type),
			Date:        *it.Date,
			Description: *it.Description,
			Category:    *it.Category,
			Amount:      *it.Amount,
			Timestamp:   it.Timestamp,
			UpdatedAt:   it.UpdatedAt,
		})
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.transactions = transactions
	t.persist()

	t.logger.Info("Imported transactions", log.FieldCount, len(transactions))
	return len(transactions), nil
}

// persist writes the collection best-effort. A failed write is logged and
// the in-memory mutation stands; persistence is degraded, not authoritative.
func (t *Tracker) persist() {
	if !t.store.SaveTransactions(t.transactions) {
		t.logger.Warn("Failed to persist transactions, in-memory state kept",
			log.FieldCount, len(t.transactions))
	}
}

func (t *Tracker) backup() {
	ok := t.store.SaveBackup(storage.Backup{
		Transactions: append([]core.Transaction(nil), t.transactions...),
		Timestamp:    t.now().UTC(),
	})
	if !ok {
		return
	}
	t.store.CleanupOldBackups(t.cfg.Backup.MaxBackups)
	t.logger.Info("Backup snapshot written",
		log.FieldCount, len(t.transactions))
}
