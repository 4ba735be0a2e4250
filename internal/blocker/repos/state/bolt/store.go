package bolt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/tamashii/internal/blocker/repos/state"
)

var (
	bucketScheduler = []byte("scheduler")
	bucketLock      = []byte("lock")

	keyLastFired = []byte("last_fired")
	keyExpiry    = []byte("expiry")
)

// boltStore implements state.Store on a single bbolt file.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) the state database at path, creating its parent
// directory when needed.
func New(path string) (state.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketScheduler, bucketLock} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

func (s *boltStore) get(bucket, key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (s *boltStore) put(bucket, key, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, value)
	})
}

func (s *boltStore) LastFired() (string, bool, error) {
	v, err := s.get(bucketScheduler, keyLastFired)
	if err != nil || v == nil {
		return "", false, err
	}
	return string(v), true, nil
}

func (s *boltStore) SetLastFired(date string) error {
	if _, err := time.Parse(state.DateLayout, date); err != nil {
		return fmt.Errorf("invalid fired date %q: %w", date, err)
	}
	return s.put(bucketScheduler, keyLastFired, []byte(date))
}

func (s *boltStore) LockExpiry() (time.Time, bool, error) {
	v, err := s.get(bucketLock, keyExpiry)
	if err != nil || v == nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt lock expiry %q: %w", v, err)
	}
	return t, true, nil
}

func (s *boltStore) SetLockExpiry(expiry time.Time) error {
	return s.put(bucketLock, keyExpiry, []byte(expiry.UTC().Format(time.RFC3339Nano)))
}

var _ state.Store = (*boltStore)(nil)
