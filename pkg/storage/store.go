// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage is the node-local object store: one directory per bucket
// under a root, one file per object. It knows nothing about other nodes.
package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/utils"
)

// Store is safe for concurrent use. It keeps no in-process state about
// buckets or objects; the filesystem is the only source of truth.
type Store struct {
	root string

	now    func() time.Time
	random func() uint32
}

// New opens a store rooted at root, creating the directory when missing.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root required")
	}
	root = utils.ResolvePath(root)
	if err := utils.EnsureDir(root); err != nil {
		return nil, ioError("create root", root, err)
	}
	if err := utils.TestWritableFile(root); err != nil {
		return nil, ioError("check root", root, err)
	}

	return &Store{
		root:   root,
		now:    time.Now,
		random: rand.Uint32,
	}, nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) bucketPath(bucket string) string {
	return filepath.Join(s.root, bucket)
}

func (s *Store) objectPath(bucket, key string) string {
	return filepath.Join(s.root, bucket, key)
}

// contextReader stops a copy once ctx is done and remembers the first read
// error so it can be told apart from write errors.
type contextReader struct {
	ctx context.Context
	r   io.Reader
	err error
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		c.err = err
		return 0, err
	}
	n, err := c.r.Read(p)
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}
