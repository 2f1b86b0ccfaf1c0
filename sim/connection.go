package sim

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const connectRetryWait = 200 * time.Millisecond

// Connect dials the simulator bridge on port. Each attempt probes the
// server version with a short timeout; once the server answers, the
// client timeout is raised for regular operation. Connect itself never
// gives up — callers bound it through ctx.
func Connect(ctx context.Context, port int, log *zap.Logger) (*Client, error) {
	client := NewClient(port)
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		default:
		}

		version, err := client.ServerVersion(ctx)
		if err == nil {
			client.SetTimeout(operatingTimeout)
			log.Info("connected to simulator",
				zap.Int("port", port),
				zap.String("version", version),
				zap.Int("attempts", attempt))
			return client, nil
		}

		log.Debug("simulator not ready", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(connectRetryWait)
	}
}
