// Package storage owns every read and write against the durable key-value
// store. It namespaces keys with the configured prefix, encodes values
// through the codec, checks the schema version marker at startup, and keeps
// a rolling set of backup snapshots.
//
// Persistence is best-effort by contract: when the underlying backend is
// unavailable every operation degrades to a no-op or default-returning mode
// instead of raising, and the condition is logged once at construction.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"exptrack/internal/config"
	"exptrack/internal/core"
	"exptrack/internal/kv"
	"exptrack/internal/log"
)

// Reserved logical keys under the prefix.
const (
	keyVersion      = "version"
	keyTransactions = "transactions"
	keySettings     = "settings"
	backupKeyPrefix = "backup_"
	probeKey        = "storage-test"
)

// Backup is one full snapshot of the transaction collection.
type Backup struct {
	Transactions []core.Transaction `json:"transactions"`
	Timestamp    time.Time          `json:"timestamp"`
}

// BackupEntry is a stored backup together with the epoch-millisecond
// timestamp parsed from its key.
type BackupEntry struct {
	Timestamp int64  `json:"timestamp"`
	Key       string `json:"key"`
	Snapshot  Backup `json:"data"`
}

// Bundle is the full store snapshot used by export and import. Data maps
// logical (unprefixed) keys to their decoded JSON values.
type Bundle struct {
	Version   string                     `json:"version"`
	Timestamp time.Time                  `json:"timestamp"`
	Data      map[string]json.RawMessage `json:"data"`
}

// Info describes the store for diagnostics.
type Info struct {
	Available bool   `json:"available"`
	Prefix    string `json:"prefix"`
	Version   string `json:"version"`
	ItemCount int    `json:"itemCount"`
	TotalSize int    `json:"totalSize"`
}

// Store is the prefix-scoped persistence layer.
type Store struct {
	backend   kv.Backend
	prefix    string
	version   string
	available bool
	logger    *log.Logger

	now func() time.Time
	// lastBackupMs guards against two backups landing on the same
	// millisecond and overwriting each other.
	lastBackupMs int64
}

// New constructs the store, probes backend availability and runs the schema
// version check. A store over an unavailable backend is still usable; it
// just never persists anything.
func New(backend kv.Backend, cfg config.StorageConfig, logger *log.Logger) *Store {
	s := &Store{
		backend: backend,
		prefix:  cfg.Prefix,
		version: cfg.Version,
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}

	s.available = s.probe()
	if !s.available {
		s.logger.Warn("Storage is not available, data will not persist",
			log.FieldPrefix, s.prefix)
		return s
	}

	s.migrate()
	return s
}

func (s *Store) probe() bool {
	key := s.key(probeKey)
	if err := s.backend.Set(key, "ok"); err != nil {
		return false
	}
	if err := s.backend.Delete(key); err != nil {
		return false
	}
	return true
}

// migrate compares the stored schema version with the configured one and
// advances the marker. Each version transition runs at most once; re-running
// with an up-to-date marker is a no-op.
func (s *Store) migrate() {
	var stored string
	if s.GetItem(keyVersion, &stored) && stored == s.version {
		return
	}
	// Data migration steps for future schema versions slot in here, keyed
	// on (stored, s.version), before the marker is advanced.
	if s.SetItem(keyVersion, s.version) {
		s.logger.Info("Storage schema version updated",
			log.FieldVersion, s.version, "previous", stored)
	}
}

// Available reports whether the underlying backend accepted the startup probe.
func (s *Store) Available() bool {
	return s.available
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

// SetItem encodes value and writes it under the prefixed key. It returns
// false when the store is unavailable or the write fails.
func (s *Store) SetItem(key string, value any) bool {
	if !s.available {
		return false
	}
	encoded, err := Encode(value)
	if err != nil {
		s.logger.Error("Failed to encode value", log.FieldKey, key, log.FieldError, err)
		return false
	}
	if err := s.backend.Set(s.key(key), encoded); err != nil {
		s.logger.Error("Failed to save to storage", log.FieldKey, key, log.FieldError, err)
		return false
	}
	return true
}

// GetItem reads the prefixed key and decodes it into out. It returns false,
// leaving out untouched, when the store is unavailable, the key is absent,
// or the value cannot be decoded; callers keep their supplied default.
func (s *Store) GetItem(key string, out any) bool {
	if !s.available {
		return false
	}
	raw, ok, err := s.backend.Get(s.key(key))
	if err != nil {
		s.logger.Error("Failed to read from storage", log.FieldKey, key, log.FieldError, err)
		return false
	}
	if !ok {
		return false
	}
	if err := Decode(raw, out); err != nil {
		s.logger.Error("Failed to decode stored value", log.FieldKey, key, log.FieldError, err)
		return false
	}
	return true
}

// RemoveItem deletes the prefixed key.
func (s *Store) RemoveItem(key string) bool {
	if !s.available {
		return false
	}
	if err := s.backend.Delete(s.key(key)); err != nil {
		s.logger.Error("Failed to remove from storage", log.FieldKey, key, log.FieldError, err)
		return false
	}
	return true
}

// Clear removes every key under the prefix. Keys outside the prefix are
// never touched, the backend may be shared with unrelated data.
func (s *Store) Clear() bool {
	if !s.available {
		return false
	}
	keys, err := s.backend.Keys(s.prefix)
	if err != nil {
		s.logger.Error("Failed to list storage keys", log.FieldError, err)
		return false
	}
	for _, k := range keys {
		if err := s.backend.Delete(k); err != nil {
			s.logger.Error("Failed to clear storage key", log.FieldKey, k, log.FieldError, err)
			return false
		}
	}
	return true
}

// SaveTransactions persists the canonical transaction collection.
func (s *Store) SaveTransactions(transactions []core.Transaction) bool {
	return s.SetItem(keyTransactions, transactions)
}

// GetTransactions loads the canonical transaction collection, defaulting to
// an empty collection.
func (s *Store) GetTransactions() []core.Transaction {
	transactions := []core.Transaction{}
	s.GetItem(keyTransactions, &transactions)
	return transactions
}

// SaveSettings persists the user preference map.
func (s *Store) SaveSettings(settings map[string]string) bool {
	return s.SetItem(keySettings, settings)
}

// GetSettings loads the user preference map, defaulting to an empty map.
func (s *Store) GetSettings() map[string]string {
	settings := map[string]string{}
	s.GetItem(keySettings, &settings)
	return settings
}

// SaveBackup writes a backup entry keyed by the current epoch-millisecond
// timestamp, so backup keys sort chronologically.
func (s *Store) SaveBackup(snapshot Backup) bool {
	ms := s.now().UnixMilli()
	if ms <= s.lastBackupMs {
		ms = s.lastBackupMs + 1
	}
	s.lastBackupMs = ms
	key := fmt.Sprintf("%s%d", backupKeyPrefix, ms)
	return s.SetItem(key, snapshot)
}

// GetBackups enumerates all backups under the prefix, newest first. Entries
// whose key carries no parseable timestamp or whose value cannot be decoded
// are skipped.
func (s *Store) GetBackups() []BackupEntry {
	if !s.available {
		return nil
	}
	keys, err := s.backend.Keys(s.key(backupKeyPrefix))
	if err != nil {
		s.logger.Error("Failed to list backups", log.FieldError, err)
		return nil
	}

	var backups []BackupEntry
	for _, fullKey := range keys {
		logical := strings.TrimPrefix(fullKey, s.prefix)
		ts, err := strconv.ParseInt(strings.TrimPrefix(logical, backupKeyPrefix), 10, 64)
		if err != nil {
			continue
		}
		var snapshot Backup
		if !s.GetItem(logical, &snapshot) {
			continue
		}
		backups = append(backups, BackupEntry{
			Timestamp: ts,
			Key:       logical,
			Snapshot:  snapshot,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp > backups[j].Timestamp
	})
	return backups
}

// CleanupOldBackups deletes all but the maxBackups most recent backups and
// returns how many were removed.
func (s *Store) CleanupOldBackups(maxBackups int) int {
	backups := s.GetBackups()
	if len(backups) <= maxBackups {
		return 0
	}
	removed := 0
	for _, b := range backups[maxBackups:] {
		if s.RemoveItem(b.Key) {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Removed old backups",
			log.FieldCount, removed, log.FieldBackupCount, maxBackups)
	}
	return removed
}

// ExportData snapshots every prefixed key into a bundle with values decoded
// back to plain JSON. It returns nil when the store is unavailable.
func (s *Store) ExportData() *Bundle {
	if !s.available {
		return nil
	}
	keys, err := s.backend.Keys(s.prefix)
	if err != nil {
		s.logger.Error("Failed to list storage keys", log.FieldError, err)
		return nil
	}

	data := make(map[string]json.RawMessage, len(keys))
	for _, fullKey := range keys {
		logical := strings.TrimPrefix(fullKey, s.prefix)
		var raw json.RawMessage
		if s.GetItem(logical, &raw) {
			data[logical] = raw
		}
	}

	return &Bundle{
		Version:   s.version,
		Timestamp: s.now().UTC(),
		Data:      data,
	}
}

// ImportData replaces every prefixed key with the bundle's contents. The
// bundle must carry a data map; otherwise nothing is touched.
func (s *Store) ImportData(bundle *Bundle) bool {
	if !s.available {
		return false
	}
	if bundle == nil || bundle.Data == nil {
		s.logger.Error("Rejected import bundle without data map")
		return false
	}

	if !s.Clear() {
		return false
	}
	for key, value := range bundle.Data {
		s.SetItem(key, value)
	}
	return true
}

// GetInfo reports availability and size figures for diagnostics.
func (s *Store) GetInfo() Info {
	info := Info{
		Available: s.available,
		Prefix:    s.prefix,
		Version:   s.version,
	}
	if !s.available {
		return info
	}
	keys, err := s.backend.Keys(s.prefix)
	if err != nil {
		return info
	}
	info.ItemCount = len(keys)
	for _, k := range keys {
		if v, ok, err := s.backend.Get(k); err == nil && ok {
			info.TotalSize += len(v)
		}
	}
	return info
}
