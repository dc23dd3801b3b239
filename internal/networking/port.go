// Package networking validates listen addresses and finds free ports for tests.
package networking

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

var (
	ErrEmptyPort      = errors.New("port cannot be empty")
	ErrInvalidFormat  = errors.New("invalid port format")
	ErrPortOutOfRange = errors.New("port number must be between 0 and 65535")
)

// ValidateListenAddr checks a listen address and returns it normalized to
// "host:port" or ":port". A bare "8080" is accepted. Port 0 is allowed so the
// OS can pick one.
func ValidateListenAddr(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrEmptyPort
	}

	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if port == "" {
		return "", ErrEmptyPort
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", fmt.Errorf("%w: port must be a number", ErrInvalidFormat)
	}
	if portNum < 0 || portNum > 65535 {
		return "", ErrPortOutOfRange
	}

	return net.JoinHostPort(host, strconv.Itoa(portNum)), nil
}
