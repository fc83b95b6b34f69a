package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJoinHostPort(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 3001, "localhost:3001"},
		{"10.0.0.5", 80, "10.0.0.5:80"},
		{"::1", 3001, "[::1]:3001"},
		{"[::1]", 3001, "[::1]:3001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinHostPort(tt.host, tt.port))
	}
}

func TestScaledTimeout(t *testing.T) {
	// 30s at 4KB/s allows 120KB per period.
	assert.Equal(t, 30*time.Second, scaledTimeout(30*time.Second, 0))
	assert.Equal(t, 30*time.Second, scaledTimeout(30*time.Second, 119_999))
	assert.Equal(t, 60*time.Second, scaledTimeout(30*time.Second, 120_000))
}

func TestNewListener(t *testing.T) {
	l, err := NewListener("127.0.0.1:0", time.Second)
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	defer l.Close()
	_, ok := l.(*Listener)
	assert.True(t, ok)
}
