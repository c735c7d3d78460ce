package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Resolution is the three-way outcome of a credential check.
type Resolution string

const (
	// ResolutionCreated - unknown username, account created with the
	// supplied password.
	ResolutionCreated Resolution = "created"
	// ResolutionMatched - known username, password matches.
	ResolutionMatched Resolution = "matched"
	// ResolutionWrongPassword - known username, password does not match.
	ResolutionWrongPassword Resolution = "wrong_password"
)

type CredentialsRepository interface {
	Resolve(ctx context.Context, username, password string) (Resolution, error)
}

type dbCredentials struct {
	client *redis.Client
}

func NewCredentialsRepository(client *redis.Client) CredentialsRepository {
	return &dbCredentials{
		client: client,
	}
}

// Resolve checks the stored password for the username, creating the account
// when the username is unknown.
func (that *dbCredentials) Resolve(ctx context.Context, username, password string) (Resolution, error) {
	loginKey := "login:" + username

	stored, err := that.client.Get(ctx, loginKey).Result()

	if errors.Is(err, redis.Nil) {
		if err = that.client.Set(ctx, loginKey, password, 0).Err(); err != nil {
			return "", fmt.Errorf("failed to create login: %w", err)
		}

		return ResolutionCreated, nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to get login: %w", err)
	}

	if stored != password {
		return ResolutionWrongPassword, nil
	}

	return ResolutionMatched, nil
}
