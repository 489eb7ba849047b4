package database

import (
	"cinema_booking/config"
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// ConnectRedis khởi tạo client cache sơ đồ ghế. Redis chết thì API vẫn chạy,
// chỉ mất cache nên không panic.
func ConnectRedis() {
	addr := config.ConfigDefault("REDIS_ADDR", "localhost:6379")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Config("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis không kết nối được (%s): %v", addr, err)
		return
	}

	Redis = client
	log.Println("Connection Opened to Redis")
}
