package progress

import (
	"context"
	"errors"

	"github.com/bodgit/pixeloverlay/kv"
)

// DefaultKey is the key progress is stored under unless configured otherwise.
const DefaultKey = "wplace-overlay-progress"

// Store persists a single record under one key of a kv.Store.
type Store struct {
	kv  kv.Store
	key string
}

// NewStore returns a store writing to key, or DefaultKey if key is empty.
func NewStore(s kv.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: s, key: key}
}

// Key returns the key records are stored under.
func (s *Store) Key() string {
	return s.key
}

// Load returns the stored record, or nil if there isn't one.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	v, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []byte(v), nil
}

// Write replaces the stored record with st.
func (s *Store) Write(ctx context.Context, st State) error {
	b, err := Encode(st)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, string(b))
}
