package elasticsearch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ConnectOptions controls how long Connect keeps retrying.
type ConnectOptions struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	PingTimeout  time.Duration
}

// DefaultConnectOptions matches a container start-up where the cluster may
// need a minute to come up.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		Attempts:     10,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		PingTimeout:  5 * time.Second,
	}
}

// Connect creates a client and pings it with exponential backoff until the
// cluster answers, attempts run out, or ctx is cancelled.
func Connect(ctx context.Context, addr, index string, log *slog.Logger, opts ConnectOptions, clientOpts ...Option) (*Client, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 5 * time.Second
	}
	delay := opts.InitialDelay

	var lastErr error
	for i := 0; i < opts.Attempts; i++ {
		client, err := New(addr, index, log, clientOpts...)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
			err = client.Ping(pingCtx)
			cancel()
			if err == nil {
				return client, nil
			}
		}
		lastErr = err

		if i == opts.Attempts-1 {
			break
		}
		if log != nil {
			log.Warn("elasticsearch not ready, retrying",
				slog.Any("err", err),
				slog.Int("attempt", i+1),
				slog.Int("max_retries", opts.Attempts),
				slog.Duration("retry_in", delay),
			)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay *= 2
		if opts.MaxDelay > 0 && delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
	return nil, fmt.Errorf("connect elasticsearch after %d attempts: %w", opts.Attempts, lastErr)
}
