package sse

import (
	"context"
	"log/slog"
	"time"
)

// KeepAliveWriter is the part of Writer the keep-alive loop needs
type KeepAliveWriter interface {
	WriteKeepAlive() error
}

// KeepAlive pings writer every interval until ctx ends or a write fails.
// The returned channel closes when the loop exits; a failed write means the
// peer is gone and the caller should stop streaming.
func KeepAlive(ctx context.Context, writer KeepAliveWriter, interval time.Duration, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := writer.WriteKeepAlive(); err != nil {
					logger.Debug("keep-alive write failed, stopping", "error", err)
					return
				}
			}
		}
	}()

	return done
}
