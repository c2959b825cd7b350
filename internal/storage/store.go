// Package storage persists application state as independent key-value
// entries. There is no multi-key transaction: each key is written on its own.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// State keys.
const (
	KeyTheme           = "theme"
	KeyUserName        = "userName"
	KeySelectedMonth   = "selectedMonth"
	KeyCategoriesGoals = "categoriesGoals"
	KeyMonthlyData     = "monthlyData"
	KeyFinancialGoals  = "financialGoals"
)

var ErrClosed = errors.New("store is closed")

// Store is a key-value collaborator holding serialized values.
type Store interface {
	// Get returns the stored value; ok is false when the key was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// GetJSON decodes key into v. ok is false when the key is missing, in which
// case v is left untouched.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
