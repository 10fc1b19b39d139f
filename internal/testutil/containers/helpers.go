//go:build integration

package containers

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// WaitForTCP blocks until the address accepts TCP connections or the
// timeout expires. Container wait strategies only cover log output;
// this gates the first broker/database client connect on the mapped
// port actually being reachable from the host.
func WaitForTCP(host string, port int, timeout time.Duration) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	deadline := time.Now().Add(timeout)

	for {
		conn, err := net.DialTimeout("tcp", address, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for %s: %w", address, err)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// RetryWithBackoff runs fn until it succeeds, waiting between attempts
// with exponential backoff from initialDelay up to maxDelay. Freshly
// started containers often refuse the first few connections even after
// their ports are open.
func RetryWithBackoff(ctx context.Context, maxAttempts int, initialDelay, maxDelay time.Duration, fn func() error) error {
	delay := initialDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("gave up after %d attempts: %w", maxAttempts, lastErr)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w (last error: %w)", ctx.Err(), lastErr)
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
