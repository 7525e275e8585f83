package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketBlobs = []byte("blobs")

// BlobStore implements domain.BlobStore using BoltDB with an in-memory
// cache in front for hot-path reads. Keys are namespaced by resource
// scope (e.g. "clips:likes", "news:snapshot") so multiple resource
// clients can share one store without interleaving.
type BlobStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	cache map[string]string
}

// New opens (or creates) a blob store under baseDir. A separate
// subdirectory is used per server URL so switching servers never mixes
// cached data. An empty baseDir yields a memory-only store.
func New(baseDir, serverURL string) (*BlobStore, error) {
	if baseDir == "" {
		// Memory-only mode (no persistence)
		return &BlobStore{cache: make(map[string]string)}, nil
	}

	dir := baseDir
	if serverURL != "" {
		dir = filepath.Join(baseDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "casa.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBlobs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BlobStore{db: db, cache: make(map[string]string)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *BlobStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the stored value for key, if any.
func (s *BlobStore) Get(key string) (string, bool) {
	// Check memory cache first
	s.mu.RLock()
	if v, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()

	if s.db == nil {
		return "", false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketBlobs).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if data == nil {
		return "", false
	}

	// Promote to memory cache
	value := string(data)
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	return value, true
}

// Set stores value under key, replacing any previous value.
func (s *BlobStore) Set(key, value string) error {
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Put([]byte(key), []byte(value))
	})
}

// Remove deletes key from both layers.
func (s *BlobStore) Remove(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Delete([]byte(key))
	})
}

// RemovePrefix deletes every key sharing the given prefix.
func (s *BlobStore) RemovePrefix(prefix string) {
	s.mu.Lock()
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBlobs)
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
