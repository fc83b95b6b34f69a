// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"context"

	"github.com/google/uuid"
)

const (
	// RequestHeader carries the request id on inbound and outbound requests.
	RequestHeader = "X-Request-Id"
)

type requestIDKey struct{}

// WithRequestID returns ctx carrying a request id, reusing an existing one
// or the supplied id before generating a fresh UUID.
func WithRequestID(c context.Context, reqID string) (context.Context, string) {
	if id, ok := c.Value(requestIDKey{}).(string); ok && id != "" {
		return c, id
	}
	if reqID == "" {
		reqID = uuid.New().String()
	}
	return context.WithValue(c, requestIDKey{}, reqID), reqID
}

// RequestID returns the request id stored in c, or "".
func RequestID(c context.Context) string {
	id, _ := c.Value(requestIDKey{}).(string)
	return id
}
