// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBucketName = errors.New("invalid bucket name")
	ErrInvalidObjectKey  = errors.New("invalid object key")
	ErrBucketExists      = errors.New("bucket already exists")
	ErrBucketNotFound    = errors.New("bucket not found")
	ErrObjectNotFound    = errors.New("object not found")

	// ErrPayloadRead wraps failures reading the upload source, as opposed to
	// failures writing to disk.
	ErrPayloadRead = errors.New("failed to read upload payload")
)

// IOError is a filesystem failure on the local disk.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func ioError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// IsNotFound reports whether err means the bucket or the object is absent
// on this node.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrBucketNotFound)
}
