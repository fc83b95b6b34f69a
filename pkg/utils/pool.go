// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"hash"
	"sync"

	"github.com/minio/sha256-simd"
)

// CopyBufferSize is the size of buffers handed out by GetCopyBuffer.
const CopyBufferSize = 256 << 10

var (
	copyBufferPool = sync.Pool{
		New: func() any {
			buf := make([]byte, CopyBufferSize)
			return &buf
		},
	}
	sha256Pool = sync.Pool{
		New: func() any {
			return sha256.New()
		},
	}
)

// GetCopyBuffer returns a pooled buffer for streaming object bytes.
func GetCopyBuffer() *[]byte {
	return copyBufferPool.Get().(*[]byte)
}

// PutCopyBuffer returns buf to the pool. Buffers of the wrong size are dropped.
func PutCopyBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) != CopyBufferSize {
		return
	}
	*buf = (*buf)[:CopyBufferSize]
	copyBufferPool.Put(buf)
}

func Sha256PoolGetHasher() hash.Hash {
	return sha256Pool.Get().(hash.Hash)
}

func Sha256PoolPutHasher(h hash.Hash) {
	h.Reset()
	sha256Pool.Put(h)
}
