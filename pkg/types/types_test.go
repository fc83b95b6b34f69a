// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeDescriptor_EncodeDecode(t *testing.T) {
	n := NodeDescriptor{ID: "server-42", Host: "node-a", Port: 3001}

	s, err := n.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"id":"server-42","host":"node-a","port":3001}`, s)

	got, err := DecodeNodeDescriptor(s)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestDecodeNodeDescriptor_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-json", `{"port":"x"}`, `{"host":"a","port":70000}`, `[1,2]`} {
		_, err := DecodeNodeDescriptor(s)
		assert.ErrorIs(t, err, ErrInvalidNode, "input %q", s)
	}
}

func TestNodeDescriptor_SameEndpoint(t *testing.T) {
	a := NodeDescriptor{ID: "a", Host: "h", Port: 1}
	assert.True(t, a.SameEndpoint(NodeDescriptor{ID: "b", Host: "h", Port: 1}))
	assert.False(t, a.SameEndpoint(NodeDescriptor{ID: "a", Host: "h", Port: 2}))
	assert.False(t, a.SameEndpoint(NodeDescriptor{ID: "a", Host: "g", Port: 1}))
}

func TestNodeDescriptor_Routable(t *testing.T) {
	assert.True(t, NodeDescriptor{Host: "h", Port: 80}.Routable())
	assert.False(t, NodeDescriptor{Host: "", Port: 80}.Routable())
	assert.False(t, NodeDescriptor{Host: "h"}.Routable())
}

func TestNodeDescriptor_Address(t *testing.T) {
	assert.Equal(t, "node-a:3001", NodeDescriptor{Host: "node-a", Port: 3001}.Address())
	assert.Equal(t, "[::1]:3001", NodeDescriptor{Host: "::1", Port: 3001}.Address())
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "photos:1700000000000-7-cat.png", LocationKey("photos", "1700000000000-7-cat.png"))
	assert.Equal(t, "b:a:b", LocationKey("b", "a:b"))
}

func TestUnixString(t *testing.T) {
	assert.Equal(t, "0", UnixString(time.Time{}))
	assert.Equal(t, "1700000000", UnixString(time.Unix(1700000000, 999)))
}
