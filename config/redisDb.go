package config

import (
	"context"
	"errors"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type redisClients struct {
	client *redis.Client
	locker *redislock.Client
}

// clients is swapped as a pair so a reader never sees a client without its locker.
var clients atomic.Pointer[redisClients]

func GetRedisDB() *redis.Client {
	if c := clients.Load(); c != nil {
		return c.client
	}
	return nil
}

func GetRedisLock() *redislock.Client {
	if c := clients.Load(); c != nil {
		return c.locker
	}
	return nil
}

// SetRedisDB swaps the global client (and its lock client). Passing nil disables Redis.
func SetRedisDB(client *redis.Client) {
	if client == nil {
		clients.Store(nil)
		return
	}
	clients.Store(&redisClients{client: client, locker: redislock.New(client)})
}

// GetRedisBytes returns (nil, false, nil) when Redis is not connected or the key is missing.
func GetRedisBytes(ctx context.Context, key string) ([]byte, bool, error) {
	rdb := GetRedisDB()
	if rdb == nil {
		return nil, false, nil
	}
	val, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func SetRedisBytes(ctx context.Context, key string, value []byte, exp time.Duration) error {
	rdb := GetRedisDB()
	if rdb == nil {
		return nil
	}
	return rdb.Set(ctx, key, value, exp).Err()
}

func RemoveRedisKey(ctx context.Context, keys ...string) error {
	rdb := GetRedisDB()
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, keys...).Result()
	return err
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// Call this from main() AFTER the HTTP server is listening.
func ConnectRedisWithRetry() {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
		log.Printf("REDIS_ADDRESS not set; defaulting to %s", redisAddr)
	}

	ctx := context.Background()
	var attempt int
	for {
		attempt++
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
			PoolSize: 20,
		})
		if err := client.Ping(ctx).Err(); err == nil {
			SetRedisDB(client)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return
		} else {
			_ = client.Close()
			sleep := time.Second * time.Duration(1<<min(attempt, 5))
			if sleep > 30*time.Second {
				sleep = 30 * time.Second
			}
			log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
			time.Sleep(sleep)
		}
	}
}
