// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolver decides where a read is served from. The local store is
// always tried first; on a miss the location directory is consulted once and
// the request is either redirected to the recorded owner or reported as not
// found. The resolver never proxies bytes, never retries, and never checks
// that the owner still has the object.
package resolver

import (
	"context"
	"io"
	"net/url"

	"github.com/LeeDigitalWorks/zapgate/pkg/coord"
	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/storage"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"
)

type State int

const (
	LocalHit State = iota
	NotFound
	Redirected
)

func (s State) String() string {
	switch s {
	case LocalHit:
		return "local_hit"
	case NotFound:
		return "not_found"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Resolution is the terminal state of one resolve. Reader and Object are set
// for LocalHit (Reader only by Open, and the caller must close it); Owner and
// Location are set for Redirected.
type Resolution struct {
	State    State
	Reader   io.ReadCloser
	Object   *types.Object
	Owner    types.NodeDescriptor
	Location string
}

// LocalStore is the part of the node-local store the resolver reads from.
type LocalStore interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, *types.Object, error)
	StatObject(ctx context.Context, bucket, key string) (*types.Object, error)
}

// Locator is the part of the location directory the resolver consults.
type Locator interface {
	Lookup(ctx context.Context, bucket, key string) (types.NodeDescriptor, bool)
	Forget(ctx context.Context, bucket, key string) coord.Outcome
}

type Resolver struct {
	local LocalStore
	dir   Locator
	self  types.NodeDescriptor
}

// New returns a resolver for the node described by self. A pointer to self
// is never followed.
func New(local LocalStore, dir Locator, self types.NodeDescriptor) *Resolver {
	return &Resolver{local: local, dir: dir, self: self}
}

// Open resolves a download. Errors are returned only for invalid names and
// local I/O failures; absence anywhere is a NotFound resolution.
func (r *Resolver) Open(ctx context.Context, bucket, key string) (Resolution, error) {
	rc, obj, err := r.local.GetObject(ctx, bucket, key)
	if err == nil {
		observe("open", LocalHit)
		return Resolution{State: LocalHit, Reader: rc, Object: obj}, nil
	}
	if !storage.IsNotFound(err) {
		return Resolution{}, err
	}
	res := r.remote(ctx, bucket, key, false)
	observe("open", res.State)
	return res, nil
}

// Stat resolves a metadata request. Redirects point at the owner's info
// endpoint.
func (r *Resolver) Stat(ctx context.Context, bucket, key string) (Resolution, error) {
	obj, err := r.local.StatObject(ctx, bucket, key)
	if err == nil {
		observe("stat", LocalHit)
		return Resolution{State: LocalHit, Object: obj}, nil
	}
	if !storage.IsNotFound(err) {
		return Resolution{}, err
	}
	res := r.remote(ctx, bucket, key, true)
	observe("stat", res.State)
	return res, nil
}

func (r *Resolver) remote(ctx context.Context, bucket, key string, stat bool) Resolution {
	owner, found := r.dir.Lookup(ctx, bucket, key)
	if !found {
		return Resolution{State: NotFound}
	}

	if owner.SameEndpoint(r.self) {
		// The pointer names this node but the object is gone locally.
		logger.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("dropping stale self pointer")
		r.dir.Forget(ctx, bucket, key).Log(ctx)
		return Resolution{State: NotFound}
	}

	return Resolution{
		State:    Redirected,
		Owner:    owner,
		Location: RedirectURL(owner, bucket, key, stat),
	}
}

// RedirectURL is the owner's equivalent of the requested endpoint:
// http://{host}:{port}/api/buckets/{bucket}/files/{key}, with "/info"
// appended for stat requests.
func RedirectURL(owner types.NodeDescriptor, bucket, key string, stat bool) string {
	u := "http://" + owner.Address() + "/api/buckets/" + url.PathEscape(bucket) + "/files/" + url.PathEscape(key)
	if stat {
		u += "/info"
	}
	return u
}
