package service

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

const healthPingTimeout = 2 * time.Second

type HealthReport struct {
	OK         bool              `json:"ok"`
	Components map[string]string `json:"components"`
}

// Pinger pings one backing component.
type Pinger func(ctx context.Context) error

type Health struct {
	Pingers map[string]Pinger
}

func NewHealth(db *bun.DB, redisClient *redis.Client, natsConn *nats.Conn) *Health {
	pingers := map[string]Pinger{
		"postgres": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	// nil when events are disabled
	if natsConn != nil {
		pingers["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return &Health{Pingers: pingers}
}

// Check pings every backing store concurrently. A failed ping marks the
// report as not ok but never cancels the others.
func (s *Health) Check(ctx context.Context) *HealthReport {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	names := make([]string, 0, len(s.Pingers))
	results := make([]error, 0, len(s.Pingers))
	for name := range s.Pingers {
		names = append(names, name)
		results = append(results, nil)
	}

	var eg errgroup.Group
	for i, name := range names {
		i, ping := i, s.Pingers[name]
		eg.Go(func() error {
			results[i] = ping(ctx)
			return nil
		})
	}
	_ = eg.Wait()

	report := &HealthReport{OK: true, Components: make(map[string]string, len(names))}
	for i, name := range names {
		if results[i] != nil {
			report.OK = false
			report.Components[name] = results[i].Error()
			continue
		}
		report.Components[name] = "ok"
	}
	return report
}
