// Package store — store.go
//
// Partitioned Store: nine isolated byte-level namespaces over a single
// embedded bbolt database, with partition 9 transparently routed through
// the Secret Vault.
//
// One *bolt.DB, buckets created up front with CreateBucketIfNotExists,
// every write/read inside an ACID bolt.Tx. The "opening the same path
// twice must fail" contract is bbolt's file-lock-with-timeout behavior,
// not something this package reimplements.
package store

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/sovereignkb/substrate/internal/observability"
	"github.com/sovereignkb/substrate/internal/vault"
)

// Status is a snapshot of one partition's health, returned by Store.Status.
type Status struct {
	Slot      Slot   `json:"slot"`
	Label     string `json:"label"`
	Bucket    string `json:"bucket"`
	Connected bool   `json:"connected"`
	Entries   int    `json:"entry_count"`
	Error     string `json:"error,omitempty"`
}

// Store wraps a bbolt database with the nine-partition byte-level API.
// Partition 9 writes are transparently encrypted via the attached Vault.
type Store struct {
	db      *bolt.DB
	vault   *vault.Vault
	log     *zap.Logger
	metrics *observability.Metrics
}

// Open opens (or creates) the substrate database at path and initializes
// all nine partition buckets. v may be a locked vault (vault.New(nil)); the
// store does not care whether it is unlocked until a partition-9 op runs.
func Open(path string, v *vault.Vault, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}

	s := &Store{db: db, vault: v, log: log}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, slot := range AllSlots() {
			if _, err := tx.CreateBucketIfNotExists([]byte(slot.BucketName())); err != nil {
				return fmt.Errorf("create bucket %q: %w", slot.BucketName(), err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: initialize buckets: %w", err)
	}

	return s, nil
}

// SetMetrics attaches process metrics so every store and vault operation
// is counted. Optional; nil leaves operations uncounted.
func (s *Store) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

func (s *Store) countOp(slot Slot, op string) {
	if s.metrics != nil {
		s.metrics.OperationsTotal.WithLabelValues(slot.Label(), op).Inc()
	}
}

func (s *Store) countVaultOp(op, result string) {
	if s.metrics != nil {
		s.metrics.VaultOperationsTotal.WithLabelValues(op, result).Inc()
	}
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsShadowUnlocked reports whether the Secret Vault has a usable master key.
func (s *Store) IsShadowUnlocked() bool {
	return s.vault.IsUnlocked()
}

// DecryptShadow decrypts raw bytes previously produced by a partition-9
// Insert, mapping the vault's errors onto this package's sentinel errors
// so typed callers never need to import internal/vault directly.
func (s *Store) DecryptShadow(raw []byte) ([]byte, error) {
	plain, err := s.vault.DecryptBlob(raw)
	if err != nil {
		switch {
		case errors.Is(err, vault.ErrLocked):
			s.countVaultOp("decrypt", "locked")
			return nil, ErrShadowLocked
		default:
			s.countVaultOp("decrypt", "failed")
			return nil, ErrCorruptOrWrongKey
		}
	}
	s.countVaultOp("decrypt", "ok")
	return plain, nil
}

func bucketOf(tx *bolt.Tx, slot Slot) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(slot.BucketName()))
	if b == nil {
		return nil, fmt.Errorf("store: bucket %q missing (store opened incorrectly)", slot.BucketName())
	}
	return b, nil
}

// Get returns the raw value at key in the given partition. For partition 9
// this is the raw encrypted bytes (nonce||ciphertext||tag); use the typed
// Shadow helpers in internal/substrate for automatic decryption.
func (s *Store) Get(slot Slot, key string) ([]byte, error) {
	s.countOp(slot, "get")
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, slot)
		if err != nil {
			return err
		}
		if v := b.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: get(%d,%q): %w", slot, key, err)
	}
	return out, nil
}

// Insert upserts value at key in the given partition and returns the
// previous value, if any. Partition 9 values are encrypted via the Secret
// Vault before being written; if the vault is locked, Insert returns
// ErrShadowLocked without writing anything.
//
// Every write is logged (slot, label, key, byte length, insert vs update);
// for partition 9 only the encrypted length is logged, never plaintext.
func (s *Store) Insert(slot Slot, key string, value []byte) ([]byte, error) {
	s.countOp(slot, "insert")
	effective := value
	if slot.Encrypted() {
		enc, err := s.vault.EncryptBlob(value)
		if err != nil {
			if errors.Is(err, vault.ErrLocked) {
				s.countVaultOp("encrypt", "locked")
				s.log.Warn("shadow write rejected: vault locked", zap.String("key", key))
				return nil, ErrShadowLocked
			}
			s.countVaultOp("encrypt", "failed")
			return nil, fmt.Errorf("store: encrypt shadow value: %w", err)
		}
		s.countVaultOp("encrypt", "ok")
		effective = enc
	}

	start := time.Now()
	var prev []byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, slot)
		if err != nil {
			return err
		}
		if old := b.Get([]byte(key)); old != nil {
			prev = append([]byte(nil), old...)
		}
		return b.Put([]byte(key), effective)
	})
	if s.metrics != nil {
		s.metrics.WriteLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("store: insert(%d,%q): %w", slot, key, err)
	}

	isUpdate := prev != nil
	if slot.Encrypted() {
		s.log.Info("shadow partition write",
			zap.Uint8("slot", uint8(slot)), zap.String("key", key),
			zap.Int("encrypted_bytes", len(effective)), zap.Bool("update", isUpdate))
	} else {
		s.log.Info("partition write",
			zap.Uint8("slot", uint8(slot)), zap.String("label", slot.Label()),
			zap.String("key", key), zap.Int("bytes", len(value)), zap.Bool("update", isUpdate))
	}
	return prev, nil
}

// Remove deletes key from the given partition and returns the previous
// value, if any.
func (s *Store) Remove(slot Slot, key string) ([]byte, error) {
	s.countOp(slot, "remove")
	var prev []byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, slot)
		if err != nil {
			return err
		}
		if old := b.Get([]byte(key)); old != nil {
			prev = append([]byte(nil), old...)
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return nil, fmt.Errorf("store: remove(%d,%q): %w", slot, key, err)
	}
	if prev != nil {
		s.log.Info("partition remove", zap.Uint8("slot", uint8(slot)), zap.String("key", key))
	}
	return prev, nil
}

// ScanKeys returns all keys in the given partition. Order is unspecified;
// typed helpers impose ordering after scanning.
func (s *Store) ScanKeys(slot Slot) ([]string, error) {
	s.countOp(slot, "scan")
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, slot)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan_keys(%d): %w", slot, err)
	}
	return keys, nil
}

// KV is a single key/value pair returned by ScanKV.
type KV struct {
	Key   string
	Value []byte
}

// ScanKV returns all key/value pairs in the given partition. For partition
// 9 this returns the raw encrypted bytes — callers needing plaintext must
// decrypt through the Secret Vault (see internal/substrate/shadow.go).
func (s *Store) ScanKV(slot Slot) ([]KV, error) {
	s.countOp(slot, "scan")
	var out []KV
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, slot)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			out = append(out, KV{Key: string(k), Value: append([]byte(nil), v...)})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan_kv(%d): %w", slot, err)
	}
	return out, nil
}

// Count returns the number of entries in the given partition.
func (s *Store) Count(slot Slot) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, slot)
		if err != nil {
			return err
		}
		n = b.Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store: count(%d): %w", slot, err)
	}
	return n, nil
}

// Status returns connection/entry-count/error status for all nine
// partitions. A locked Shadow partition reports "LOCKED (no master key)"
// rather than pretending to be healthy.
func (s *Store) Status() []Status {
	out := make([]Status, 0, 9)
	for _, slot := range AllSlots() {
		n, err := s.Count(slot)
		st := Status{
			Slot:      slot,
			Label:     slot.Label(),
			Bucket:    slot.BucketName(),
			Connected: err == nil,
			Entries:   n,
		}
		if err != nil {
			st.Error = err.Error()
		} else if slot.Encrypted() && !s.vault.IsUnlocked() {
			st.Error = "LOCKED (no master key)"
		}
		out = append(out, st)
	}
	return out
}

// InitMetadata seeds a "__meta__" key in every non-Shadow partition
// describing its purpose, giving operators a cheap per-partition sanity
// probe. Idempotent; safe to call on every startup.
func (s *Store) InitMetadata() error {
	for _, slot := range AllSlots() {
		if slot.Encrypted() {
			continue // never write unencrypted metadata into Shadow.
		}
		existing, err := s.Get(slot, "__meta__")
		if err != nil {
			return fmt.Errorf("store: init metadata for slot %d: %w", slot, err)
		}
		if existing != nil {
			continue
		}
		meta := fmt.Sprintf(`{"slot":%d,"label":%q,"bucket":%q,"initialized_at_ms":%d}`,
			slot, slot.Label(), slot.BucketName(), time.Now().UnixMilli())
		if _, err := s.Insert(slot, "__meta__", []byte(meta)); err != nil {
			return fmt.Errorf("store: init metadata for slot %d: %w", slot, err)
		}
	}
	return nil
}
