// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "time"

// Object is a stored file in a bucket on the local node.
type Object struct {
	Bucket       string
	Key          string
	OriginalName string // set on upload only
	Size         int64
	SHA256       string // set on upload only
	Path         string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}
