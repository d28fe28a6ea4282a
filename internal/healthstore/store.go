// Package healthstore persists the host-health table (internal/healthtable)
// across process restarts. It is a write-behind snapshot, not the
// authoritative state: the in-memory table still drives every decision at
// runtime, and the store only saves a client from treating every host as
// brand new after a restart.
package healthstore

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/athena-dhcpd/radiusfailover/internal/healthtable"
)

var bucketHealth = []byte("host_health")

// Store wraps a BoltDB file holding one JSON-encoded record per host.
type Store struct {
	db *bolt.DB
}

// record is the on-disk shape of a healthtable.Record.
type record struct {
	LastOkAt            time.Time `json:"last_ok_at"`
	LastTriedAt         time.Time `json:"last_tried_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// Open opens (creating if needed) the BoltDB file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening health store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHealth)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing health store bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadInto reads every persisted record and applies it to an already
// constructed healthtable.Table, for the hosts the table already knows
// about. Hosts with no persisted record are left at their zero value.
func (s *Store) LoadInto(t *healthtable.Table) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHealth)
		return b.ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil // skip corrupt entries rather than failing startup
			}
			host := string(k)
			if rec.LastOkAt.After(time.Time{}) {
				t.MarkAlive(host, rec.LastOkAt)
			}
			for i := 0; i < rec.ConsecutiveFailures; i++ {
				t.MarkDead(host)
			}
			if !rec.LastTriedAt.IsZero() {
				t.MarkTried(host, rec.LastTriedAt)
			}
			return nil
		})
	})
}

// Save writes one host's current record to disk.
func (s *Store) Save(host string, r healthtable.Record) error {
	rec := record{
		LastOkAt:            r.LastOkAt,
		LastTriedAt:         r.LastTriedAt,
		ConsecutiveFailures: r.ConsecutiveFailures,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling health record for %s: %w", host, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHealth).Put([]byte(host), data)
	})
}
