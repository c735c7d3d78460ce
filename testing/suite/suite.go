// Package suite boots disposable infrastructure for repository tests. Each
// test gets its own redis container, pre-flushed, with helpers that speak the
// login key convention of the credentials store.
package suite

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	expireSeconds   = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	loginKeyPrefix = "login:"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client
}

// New boots a redis container for one test and returns a client connected to
// a flushed database. The container is purged on cleanup and self-expires in
// case cleanup never runs.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(cancel)

	client := startRedis(ctx, t)

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	return ctx, &Suite{
		T:       t,
		Logger:  slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
		Storage: client,
	}
}

// SeedAccount stores a password under the credentials store's key convention,
// simulating an account registered in an earlier server run.
func (that *Suite) SeedAccount(ctx context.Context, username, password string) {
	that.Helper()

	if err := that.Storage.Set(ctx, loginKeyPrefix+username, password, 0).Err(); err != nil {
		that.Fatalf("could not seed account %q: %v", username, err)
	}
}

// StoredPassword reads back the password stored for the username, or fails
// the test if the account does not exist.
func (that *Suite) StoredPassword(ctx context.Context, username string) string {
	that.Helper()

	stored, err := that.Storage.Get(ctx, loginKeyPrefix+username).Result()
	if err != nil {
		that.Fatalf("could not read account %q: %v", username, err)
	}

	return stored
}

func startRedis(ctx context.Context, t *testing.T) *redis.Client {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}
	pool.MaxWait = maxWaitDuration

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
	}, func(config *docker.HostConfig) {
		// stopped containers clean themselves up
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start resource: %v", err)
	}

	_ = resource.Expire(expireSeconds)

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("could not purge resource: %v", err)
		}
	})

	var client *redis.Client
	// retry with backoff, the container might not accept connections yet
	if err = pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{
			Addr: resource.GetHostPort(redisPort),
		})
		return client.Ping(ctx).Err()
	}); err != nil {
		t.Fatalf("could not connect to redis: %v", err)
	}

	return client
}
