// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package coord

import (
	"context"
	"errors"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"
)

// DefaultTimeout bounds a single coordination call.
const DefaultTimeout = 2 * time.Second

// Outcome reports how a best-effort coordination write went. It is meant to
// be logged and dropped; nothing downstream depends on it.
type Outcome struct {
	Op  string
	Key string
	Err error
}

// Degraded reports whether the write did not reach the backing store.
func (o Outcome) Degraded() bool {
	return o.Err != nil
}

func (o Outcome) Log(ctx context.Context) {
	if o.Err != nil {
		logger.Ctx(ctx).Warn().Err(o.Err).Str("op", o.Op).Str("key", o.Key).Msg("coordination write degraded")
		return
	}
	logger.Ctx(ctx).Debug().Str("op", o.Op).Str("key", o.Key).Msg("coordination write applied")
}

// Directory maps (bucket, key) to the node holding the object. Entries are
// advisory: last writer wins, and a dangling entry is expected after a
// failed Forget.
type Directory struct {
	store   Store
	timeout time.Duration
}

func NewDirectory(store Store, timeout time.Duration) *Directory {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Directory{store: store, timeout: timeout}
}

// Record points (bucket, key) at owner, overwriting any previous owner.
func (d *Directory) Record(ctx context.Context, bucket, key string, owner types.NodeDescriptor) Outcome {
	dirKey := types.LocationKey(bucket, key)
	out := Outcome{Op: "record", Key: dirKey}

	value, err := owner.Encode()
	if err != nil {
		out.Err = err
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	out.Err = d.store.Set(ctx, dirKey, value)
	observe("record", start, out.Err, false)
	return out
}

// Lookup returns the recorded owner. Any store failure, and any value that
// does not describe a reachable node, is reported as not found.
func (d *Directory) Lookup(ctx context.Context, bucket, key string) (types.NodeDescriptor, bool) {
	dirKey := types.LocationKey(bucket, key)

	lctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	value, err := d.store.Get(lctx, dirKey)
	miss := errors.Is(err, ErrNotFound)
	if miss {
		err = nil
	}
	observe("lookup", start, err, miss)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", dirKey).Msg("directory lookup degraded to not found")
		return types.NodeDescriptor{}, false
	}
	if miss {
		return types.NodeDescriptor{}, false
	}

	owner, err := types.DecodeNodeDescriptor(value)
	if err != nil || !owner.Routable() {
		logger.Ctx(ctx).Warn().Err(err).Str("key", dirKey).Str("value", value).Msg("ignoring unusable directory entry")
		return types.NodeDescriptor{}, false
	}
	return owner, true
}

// Forget removes the entry for (bucket, key).
func (d *Directory) Forget(ctx context.Context, bucket, key string) Outcome {
	dirKey := types.LocationKey(bucket, key)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.store.Del(ctx, dirKey)
	observe("forget", start, err, false)
	return Outcome{Op: "forget", Key: dirKey, Err: err}
}

func observe(op string, start time.Time, err error, miss bool) {
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := resultOK
	switch {
	case err != nil:
		result = resultDegraded
	case miss:
		result = resultMiss
	}
	Operations.WithLabelValues(op, result).Inc()
}
