// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/LeeDigitalWorks/zapgate/pkg/types"
)

// CreateBucket makes the bucket directory. Mkdir is the existence check, so
// two concurrent creates of one name yield exactly one success.
func (s *Store) CreateBucket(ctx context.Context, name string) (*types.Bucket, error) {
	if err := ValidateBucketName(name); err != nil {
		return nil, err
	}

	dir := s.bucketPath(name)
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrBucketExists
		}
		return nil, ioError("create bucket", dir, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, ioError("stat bucket", dir, err)
	}
	return &types.Bucket{
		Name:       name,
		CreatedAt:  birthTime(dir, info),
		ModifiedAt: info.ModTime(),
	}, nil
}

// DeleteBucket removes the bucket and every object in it.
func (s *Store) DeleteBucket(ctx context.Context, name string) error {
	if err := validateSegment(name, ErrInvalidBucketName); err != nil {
		return err
	}

	dir := s.bucketPath(name)
	if _, err := s.statBucket(dir); err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return ioError("delete bucket", dir, err)
	}
	return nil
}

// ListBuckets scans the root. Size and object count are summed from the
// files on every call.
func (s *Store) ListBuckets(ctx context.Context) ([]types.Bucket, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, ioError("list buckets", s.root, err)
	}

	buckets := make([]types.Bucket, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		dir := s.bucketPath(entry.Name())
		info, err := os.Stat(dir)
		if err != nil {
			continue
		}

		bucket := types.Bucket{
			Name:       entry.Name(),
			CreatedAt:  birthTime(dir, info),
			ModifiedAt: info.ModTime(),
		}
		files, err := os.ReadDir(dir)
		if err == nil {
			for _, f := range files {
				fi, err := f.Info()
				if err != nil || !fi.Mode().IsRegular() {
					continue
				}
				bucket.Size += fi.Size()
				bucket.ObjectCount++
			}
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

func (s *Store) statBucket(dir string) (fs.FileInfo, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBucketNotFound
		}
		return nil, ioError("stat bucket", dir, err)
	}
	if !info.IsDir() {
		return nil, ErrBucketNotFound
	}
	return info, nil
}
