// Package boltstore persists the cart ledger in a local bbolt file.
package boltstore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/xenking/katalog-toko/internal/cart"
)

var (
	bucketName = []byte("cart")
	ledgerKey  = []byte("ledger")
)

var _ cart.Store = (*Store)(nil)

// Store keeps a single cart ledger in a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open cart db %q", path)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create cart bucket")
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the saved ledger, or an empty one when nothing was saved.
func (s *Store) Load(ctx context.Context) (*cart.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := cart.New()
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		data := b.Get(ledgerKey)
		if len(data) == 0 {
			return nil
		}
		return l.UnmarshalJSON(data)
	})
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return l, nil
}

// Save replaces the stored ledger with l.
func (s *Store) Save(ctx context.Context, l *cart.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := l.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put(ledgerKey, data)
	}); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}
