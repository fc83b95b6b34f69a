// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

// LocationKey is the directory key under which the owner of an object is
// recorded, "{bucket}:{key}". The recorded owner is advisory: it may have
// deleted the object since.
func LocationKey(bucket, key string) string {
	return bucket + ":" + key
}
