package database

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/hausbuch/backend/internal/config"
)

// InitRedis connects to redis. Redis is optional (token blacklist and
// receipt QR cache); a nil client is returned when it is unreachable.
func InitRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}
