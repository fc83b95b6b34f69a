// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"strconv"
	"time"
)

// Bucket is a namespace of objects backed by one directory on the node's disk.
// Size and ObjectCount are computed by scanning at read time.
type Bucket struct {
	Name        string
	Size        int64
	ObjectCount int
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// UnixString renders t as whole unix seconds, "0" for the zero time.
func UnixString(t time.Time) string {
	if t.IsZero() || t.Unix() < 0 {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}
