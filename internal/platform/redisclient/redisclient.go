package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// New opens a Redis client and waits for it to answer pings, mirroring the
// Postgres connect loop. The cache is advisory, but a dead Redis at boot is
// almost always a deployment mistake worth failing fast on.
func New(addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	deadline := time.Now().Add(15 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err == nil {
			return client, nil
		}
		if time.Now().After(deadline) {
			_ = client.Close()
			return nil, err
		}
		time.Sleep(500 * time.Millisecond)
	}
}
