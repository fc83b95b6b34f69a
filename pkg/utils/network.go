package utils

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
)

// minThroughputBytesPerSecond is the slowest transfer rate a connection may
// sustain before its deadline fires (4KB/s).
const minThroughputBytesPerSecond = 4000

// Listener wraps a net.Listener and applies per-operation deadlines to every
// accepted connection.
type Listener struct {
	net.Listener
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (l *Listener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &Conn{
		Conn:         c,
		ReadTimeout:  l.ReadTimeout,
		WriteTimeout: l.WriteTimeout,
	}, nil
}

// Conn sets a deadline before each read and write. The deadline grows with
// the bytes already transferred so large uploads and downloads over slow
// links are not cut off while they keep making progress.
type Conn struct {
	net.Conn
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	bytesRead    int64
	bytesWritten int64
}

func scaledTimeout(timeout time.Duration, transferred int64) time.Duration {
	perTimeout := int64(float64(minThroughputBytesPerSecond) * timeout.Seconds())
	if perTimeout <= 0 {
		perTimeout = 1
	}
	return timeout * time.Duration(transferred/perTimeout+1)
}

func (c *Conn) Read(b []byte) (int, error) {
	if c.ReadTimeout != 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(scaledTimeout(c.ReadTimeout, c.bytesRead))); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Read(b)
	c.bytesRead += int64(n)
	return n, err
}

func (c *Conn) Write(b []byte) (int, error) {
	if c.WriteTimeout != 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(scaledTimeout(c.WriteTimeout, c.bytesWritten))); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Write(b)
	c.bytesWritten += int64(n)
	return n, err
}

// NewListener listens on addr. A zero timeout disables deadlines.
func NewListener(addr string, timeout time.Duration) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Listener{
		Listener:     listener,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}, nil
}

// DetectedHostAddress returns the first non-loopback address of an up
// interface, preferring IPv4, or "localhost".
func DetectedHostAddress() string {
	netInterfaces, err := net.Interfaces()
	if err != nil {
		logger.Info().Msgf("failed to detect net interfaces: %v", err)
		return "localhost"
	}

	if v4Address := selectIP(netInterfaces, true); v4Address != "" {
		return v4Address
	}

	if v6Address := selectIP(netInterfaces, false); v6Address != "" {
		return v6Address
	}

	return "localhost"
}

func selectIP(netInterfaces []net.Interface, isIPv4 bool) string {
	for _, netInterface := range netInterfaces {
		if (netInterface.Flags & net.FlagUp) == 0 {
			continue
		}
		addrs, err := netInterface.Addrs()
		if err != nil {
			logger.Info().Msgf("get interface addresses: %v", err)
			continue
		}

		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			if isIPv4 {
				if ipNet.IP.To4() != nil {
					return ipNet.IP.String()
				}
				continue
			}
			// Link-local IPv6 needs a zone and cannot be advertised.
			if ipNet.IP.To4() == nil && ipNet.IP.To16() != nil && !ipNet.IP.IsLinkLocalUnicast() {
				return ipNet.IP.String()
			}
		}
	}
	return ""
}

func JoinHostPort(host string, port int) string {
	portStr := strconv.Itoa(port)
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host + ":" + portStr
	}
	return net.JoinHostPort(host, portStr)
}
