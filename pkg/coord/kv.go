// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package coord holds the state shared by all gateway nodes: the node
// registry and the object location directory. Both sit on a small key/value
// Store so Redis can be swapped for an in-memory map in tests and single-node
// deployments.
//
// Every failure of the backing store is absorbed here. Callers see a miss, an
// empty list, or an Outcome they log and drop, never an error.
package coord

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when the key is absent.
var ErrNotFound = errors.New("coord: key not found")

// Store is the subset of single-key atomic operations the directory and the
// registry rely on.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	SAdd(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
