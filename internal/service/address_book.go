package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exdb-api/internal/models"
)

const addressBookKey = "exdb:addresses"

// AddressBook resolves the address notifications for a user are sent to.
type AddressBook interface {
	Lookup(ctx context.Context, user models.User) string
	Sync(ctx context.Context, users []models.User) (int, error)
}

type redisAddressBook struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewAddressBook caches recipient addresses in a redis hash. A nil client
// resolves every address from the user record.
func NewAddressBook(client *redis.Client, logger zerolog.Logger) AddressBook {
	return &redisAddressBook{
		client: client,
		logger: logger.With().Str("component", "address_book").Logger(),
	}
}

func (b *redisAddressBook) Lookup(ctx context.Context, user models.User) string {
	if b.client == nil {
		return strings.TrimSpace(user.Email)
	}

	address, err := b.client.HGet(ctx, addressBookKey, strconv.FormatUint(uint64(user.ID), 10)).Result()
	if err != nil {
		if err != redis.Nil {
			b.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to read address book")
		}
		return strings.TrimSpace(user.Email)
	}
	return address
}

// Sync replaces the cached addresses with those of users.
func (b *redisAddressBook) Sync(ctx context.Context, users []models.User) (int, error) {
	if b.client == nil {
		return 0, nil
	}

	values := make(map[string]interface{}, len(users))
	for _, user := range users {
		address := strings.TrimSpace(user.Email)
		if address == "" {
			continue
		}
		values[strconv.FormatUint(uint64(user.ID), 10)] = address
	}

	pipe := b.client.TxPipeline()
	pipe.Del(ctx, addressBookKey)
	if len(values) > 0 {
		pipe.HSet(ctx, addressBookKey, values)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	b.logger.Info().Int("addresses", len(values)).Msg("address book refreshed")
	return len(values), nil
}
