package events

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Backend      string
	RedisClient  *redis.Client
	RedisChannel string
	KafkaBrokers []string
	KafkaTopic   string
}

// NewPublisher picks the publisher for opts.Backend: "redis", "kafka" or
// "none".
func NewPublisher(opts Options) (Publisher, error) {
	switch opts.Backend {
	case "redis":
		if opts.RedisClient == nil {
			return nil, fmt.Errorf("redis event backend requires a redis client")
		}
		return NewRedisPublisher(opts.RedisClient, opts.RedisChannel), nil
	case "kafka":
		if len(opts.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka event backend requires at least one broker")
		}
		return NewKafkaPublisher(opts.KafkaBrokers, opts.KafkaTopic), nil
	case "none", "":
		return NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown event backend %q", opts.Backend)
	}
}
