package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

type ChannelRepository interface {
	// GetOrCreatePair stores ch as the channel for its user pair, unless a
	// channel for that pair already exists, in which case the existing one
	// is returned. The second result reports whether ch was stored.
	GetOrCreatePair(ctx context.Context, ch *models.Channel) (*models.Channel, bool, error)
	GetPartners(ctx context.Context, userID string) ([]string, error)
}

type redisChannelRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisChannelRepository(cli *redis.Client, l logger.Logger) ChannelRepository {
	return &redisChannelRepository{
		cli: cli,
		l:   l,
	}
}

// Lua script so that pair-channel creation and the partner-set updates are
// one atomic step: two users matching concurrently against the same pair
// always observe a single channel.
var getOrCreatePairScript = redis.NewScript(`
	local existing = redis.call('GET', KEYS[1])
	if existing then
		return existing
	end

	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('SADD', KEYS[2], ARGV[3])
	redis.call('SADD', KEYS[3], ARGV[2])
	return false
`)

func (r *redisChannelRepository) GetOrCreatePair(ctx context.Context, ch *models.Channel) (*models.Channel, bool, error) {
	if len(ch.UserIDs) != 2 {
		return nil, false, fmt.Errorf("pair channel requires exactly two users, got %d", len(ch.UserIDs))
	}

	userA, userB := ch.UserIDs[0], ch.UserIDs[1]

	val, err := json.Marshal(ch)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode channel: %w", err)
	}

	keys := []string{
		r.pairKey(userA, userB),
		r.partnersKey(userA),
		r.partnersKey(userB),
	}

	res, err := getOrCreatePairScript.Run(ctx, r.cli, keys, string(val), userA, userB).Result()
	if err != nil && err != redis.Nil {
		r.l.Errorf(ctx, "redisChannelRepository.GetOrCreatePair: %v", err)
		return nil, false, err
	}

	// Script returns false (-> redis.Nil) when ch was stored, or the
	// existing channel JSON otherwise.
	if existing, ok := res.(string); ok {
		var out models.Channel
		if err := json.Unmarshal([]byte(existing), &out); err != nil {
			return nil, false, fmt.Errorf("failed to decode stored channel: %w", err)
		}
		return &out, false, nil
	}

	return ch, true, nil
}

func (r *redisChannelRepository) GetPartners(ctx context.Context, userID string) ([]string, error) {
	partners, err := r.cli.SMembers(ctx, r.partnersKey(userID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisChannelRepository.GetPartners: %v", err)
		return nil, err
	}

	return partners, nil
}

// pairKey is order-independent so (a,b) and (b,a) address the same channel.
func (r *redisChannelRepository) pairKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("campusmeet:channel:pair:%s:%s", userA, userB)
}

func (r *redisChannelRepository) partnersKey(userID string) string {
	return fmt.Sprintf("campusmeet:partners:%s", userID)
}
