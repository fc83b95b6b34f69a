// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// NodeDescriptor identifies one running gateway node and where peers can
// reach it. Two descriptors are the same node entry only when every field
// matches.
type NodeDescriptor struct {
	ID   string `json:"id"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

var ErrInvalidNode = errors.New("invalid node descriptor")

// Address returns host:port.
func (n NodeDescriptor) Address() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// SameEndpoint reports whether o is reachable at the same host and port,
// regardless of id.
func (n NodeDescriptor) SameEndpoint(o NodeDescriptor) bool {
	return n.Host == o.Host && n.Port == o.Port
}

// Routable reports whether the descriptor carries enough to build a URL.
func (n NodeDescriptor) Routable() bool {
	return n.Host != "" && n.Port > 0 && n.Port <= 65535
}

func (n NodeDescriptor) String() string {
	return fmt.Sprintf("%s@%s", n.ID, n.Address())
}

// Encode renders the wire form {"id","host","port"}. Field order is fixed so
// equal descriptors always encode to equal strings.
func (n NodeDescriptor) Encode() (string, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeNodeDescriptor parses the wire form. Ports outside 0-65535 are rejected.
func DecodeNodeDescriptor(s string) (NodeDescriptor, error) {
	var n NodeDescriptor
	if err := json.Unmarshal([]byte(s), &n); err != nil {
		return NodeDescriptor{}, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	if n.Port < 0 || n.Port > 65535 {
		return NodeDescriptor{}, fmt.Errorf("%w: port %d out of range", ErrInvalidNode, n.Port)
	}
	return n, nil
}
