// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package coord

import (
	"context"
	"sort"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"
)

// NodesKey is the set holding every registered node descriptor.
const NodesKey = "nodes"

// Registry is the shared set of known nodes. Entries are never removed and
// uniqueness is by full value, so re-registering a node with a new port adds
// a second entry.
type Registry struct {
	store   Store
	timeout time.Duration
}

func NewRegistry(store Store, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{store: store, timeout: timeout}
}

// Register adds n to the set. The descriptor is not validated.
func (r *Registry) Register(ctx context.Context, n types.NodeDescriptor) Outcome {
	out := Outcome{Op: "register", Key: NodesKey}

	member, err := n.Encode()
	if err != nil {
		out.Err = err
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	out.Err = r.store.SAdd(ctx, NodesKey, member)
	observe("register", start, out.Err, false)
	return out
}

// List returns a snapshot of the registry ordered by id, host and port.
// Members that fail to parse are skipped. A store failure yields an empty
// list.
func (r *Registry) List(ctx context.Context) []types.NodeDescriptor {
	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	members, err := r.store.SMembers(lctx, NodesKey)
	observe("list", start, err, false)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("node registry unavailable, returning empty list")
		return []types.NodeDescriptor{}
	}

	nodes := make([]types.NodeDescriptor, 0, len(members))
	for _, m := range members {
		n, err := types.DecodeNodeDescriptor(m)
		if err != nil {
			logger.Ctx(ctx).Debug().Err(err).Str("member", m).Msg("skipping malformed registry entry")
			continue
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Host != b.Host {
			return a.Host < b.Host
		}
		return a.Port < b.Port
	})
	return nodes
}
