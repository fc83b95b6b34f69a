// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/LeeDigitalWorks/zapgate/pkg/types"
	"github.com/LeeDigitalWorks/zapgate/pkg/utils"
)

// maxKeyAttempts bounds retries when a generated key already exists on disk.
const maxKeyAttempts = 8

// PutObject writes r under a freshly generated key in bucket, creating the
// bucket directory when it does not exist yet. Uploads never overwrite: the
// file is created with O_EXCL and a new key is drawn on collision.
//
// On failure the partial file is removed. The key is only returned, and so
// only published anywhere else, once the bytes are synced to disk.
func (s *Store) PutObject(ctx context.Context, bucket, originalName string, r io.Reader) (obj *types.Object, err error) {
	defer func() { observe("put", err) }()

	if err := ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	dir := s.bucketPath(bucket)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, ioError("create bucket", dir, err)
	}

	name := sanitizeOriginalName(originalName)
	var (
		f    *os.File
		key  string
		path string
	)
	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key = objectKey(s.now().UnixMilli(), s.random(), name)
		path = filepath.Join(dir, key)
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, ioError("create object", path, err)
		}
	}
	if f == nil {
		return nil, ioError("create object", path, err)
	}

	hasher := utils.Sha256PoolGetHasher()
	defer utils.Sha256PoolPutHasher(hasher)
	buf := utils.GetCopyBuffer()
	defer utils.PutCopyBuffer(buf)

	src := &contextReader{ctx: ctx, r: r}
	size, err := io.CopyBuffer(io.MultiWriter(f, hasher), src, *buf)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		if src.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPayloadRead, src.err)
		}
		return nil, ioError("write object", path, err)
	}

	BytesWritten.Add(float64(size))

	info, err := os.Stat(path)
	if err != nil {
		return nil, ioError("stat object", path, err)
	}
	return &types.Object{
		Bucket:       bucket,
		Key:          key,
		OriginalName: name,
		Size:         size,
		SHA256:       hex.EncodeToString(hasher.Sum(nil)),
		Path:         path,
		CreatedAt:    birthTime(path, info),
		ModifiedAt:   info.ModTime(),
	}, nil
}

// GetObject opens the object for reading. The caller closes the reader.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (rc io.ReadCloser, obj *types.Object, err error) {
	defer func() { observe("get", err) }()

	path, err := s.resolveObject(bucket, key)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, s.missing(bucket)
		}
		return nil, nil, ioError("open object", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, ioError("stat object", path, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrObjectNotFound
	}
	return f, s.objectFromInfo(bucket, key, path, info), nil
}

// StatObject returns size and timestamps without opening the object.
func (s *Store) StatObject(ctx context.Context, bucket, key string) (obj *types.Object, err error) {
	defer func() { observe("stat", err) }()

	path, err := s.resolveObject(bucket, key)
	if err != nil {
		return nil, err
	}
	info, err := s.statObject(bucket, path)
	if err != nil {
		return nil, err
	}
	return s.objectFromInfo(bucket, key, path, info), nil
}

// DeleteObject removes one object. Missing objects are ErrObjectNotFound.
func (s *Store) DeleteObject(ctx context.Context, bucket, key string) (err error) {
	defer func() { observe("delete", err) }()

	path, err := s.resolveObject(bucket, key)
	if err != nil {
		return err
	}
	if _, err := s.statObject(bucket, path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return ioError("delete object", path, err)
	}
	return nil
}

// ListObjects returns the objects of bucket ordered by key.
func (s *Store) ListObjects(ctx context.Context, bucket string) ([]types.Object, error) {
	if err := validateSegment(bucket, ErrInvalidBucketName); err != nil {
		return nil, err
	}
	dir := s.bucketPath(bucket)
	if _, err := s.statBucket(dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("list objects", dir, err)
	}
	objects := make([]types.Object, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		objects = append(objects, *s.objectFromInfo(bucket, entry.Name(), path, info))
	}
	return objects, nil
}

func (s *Store) resolveObject(bucket, key string) (string, error) {
	if err := validateSegment(bucket, ErrInvalidBucketName); err != nil {
		return "", err
	}
	if err := validateSegment(key, ErrInvalidObjectKey); err != nil {
		return "", err
	}
	return s.objectPath(bucket, key), nil
}

func (s *Store) statObject(bucket, path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, s.missing(bucket)
		}
		return nil, ioError("stat object", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, ErrObjectNotFound
	}
	return info, nil
}

// missing tells a missing bucket apart from a missing object in an
// existing bucket.
func (s *Store) missing(bucket string) error {
	if _, err := s.statBucket(s.bucketPath(bucket)); errors.Is(err, ErrBucketNotFound) {
		return ErrBucketNotFound
	}
	return ErrObjectNotFound
}

func (s *Store) objectFromInfo(bucket, key, path string, info fs.FileInfo) *types.Object {
	return &types.Object{
		Bucket:     bucket,
		Key:        key,
		Size:       info.Size(),
		Path:       path,
		CreatedAt:  birthTime(path, info),
		ModifiedAt: info.ModTime(),
	}
}
