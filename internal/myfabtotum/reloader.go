package myfabtotum

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Stewz00/myfabtotum-link/internal/logging"
)

const (
	ReloadChannel = "myfabtotum:reload"
	reloadMessage = "reload"
)

// Publisher is the subset of the redis client used to signal the daemon.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisReloader signals the myfabtotum daemon over redis pub/sub.
type RedisReloader struct {
	pub Publisher
	log logging.Logger
}

func NewRedisReloader(pub Publisher, log logging.Logger) *RedisReloader {
	return &RedisReloader{pub: pub, log: log}
}

func (r *RedisReloader) Reload(ctx context.Context) error {
	receivers, err := r.pub.Publish(ctx, ReloadChannel, reloadMessage).Result()
	if err != nil {
		return fmt.Errorf("publish reload: %w", err)
	}
	if receivers == 0 {
		r.log.Warn(ctx, "credential reload published with no subscribers", "channel", ReloadChannel)
	}
	return nil
}

// LogReloader only records the reload request. Used when no redis is configured.
type LogReloader struct {
	log logging.Logger
}

func NewLogReloader(log logging.Logger) *LogReloader {
	return &LogReloader{log: log}
}

func (r *LogReloader) Reload(ctx context.Context) error {
	r.log.Info(ctx, "credential reload requested", "channel", ReloadChannel)
	return nil
}
