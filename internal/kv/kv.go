// Package kv defines the persistent key-value collaborator that durably
// holds the bookkeeping collections as JSON sequences.
package kv

import (
	"context"
	"errors"
)

const (
	KeyProducts = "products"
	KeySales    = "sales"
	KeyExpenses = "expenses"
	KeyPayments = "payments"
)

// Keys lists every collection key that must exist before any read.
var Keys = []string{KeyProducts, KeySales, KeyExpenses, KeyPayments}

// ErrNoKey is returned by Get when the key has never been written.
var ErrNoKey = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Init writes an empty JSON sequence to any missing collection key so that
// every later Get round-trips losslessly.
func Init(ctx context.Context, s Store) error {
	for _, key := range Keys {
		_, err := s.Get(ctx, key)
		if errors.Is(err, ErrNoKey) {
			if err := s.Set(ctx, key, []byte("[]")); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
