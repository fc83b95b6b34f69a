// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// DefaultOriginalName names uploads that arrive without a filename.
const DefaultOriginalName = "upload.bin"

// ValidateBucketName enforces the bucket naming rule: non-empty, only
// lowercase ASCII letters, digits and '-', not starting or ending with '-'.
func ValidateBucketName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: bucket name cannot be empty", ErrInvalidBucketName)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return fmt.Errorf("%w: bucket name may only contain lowercase letters, digits and hyphens", ErrInvalidBucketName)
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return fmt.Errorf("%w: bucket name cannot start or end with a hyphen", ErrInvalidBucketName)
	}
	return nil
}

// validateSegment rejects names that would escape their directory when used
// as a single path element.
func validateSegment(name string, sentinel error) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", sentinel)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is reserved", sentinel, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: path separators not allowed", sentinel)
	}
	return nil
}

// sanitizeOriginalName reduces a client supplied filename to a safe final
// path element, falling back to DefaultOriginalName.
func sanitizeOriginalName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == 0 || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return DefaultOriginalName
	}
	return name
}

// objectKey builds "{unixMillis}-{random}-{originalName}".
func objectKey(millis int64, random uint32, originalName string) string {
	return strconv.FormatInt(millis, 10) + "-" + strconv.FormatUint(uint64(random), 10) + "-" + originalName
}
