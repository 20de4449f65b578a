package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

type UserRepository interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
}

type redisUserRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisUserRepository(cli *redis.Client, l logger.Logger) UserRepository {
	return &redisUserRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisUserRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	fields, err := r.cli.HGetAll(ctx, r.userKey(userID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisUserRepository.Get: %v", err)
		return nil, err
	}

	if len(fields) == 0 {
		return nil, redis.Nil
	}

	return &models.User{
		ID:          userID,
		DisplayName: fields["display_name"],
		YearOfStudy: models.YearOfStudy(fields["year_of_study"]),
		Course:      fields["course"],
	}, nil
}

func (r *redisUserRepository) Save(ctx context.Context, u *models.User) error {
	if err := r.cli.HSet(ctx, r.userKey(u.ID),
		"display_name", u.DisplayName,
		"year_of_study", string(u.YearOfStudy),
		"course", u.Course,
	).Err(); err != nil {
		r.l.Errorf(ctx, "redisUserRepository.Save: %v", err)
		return err
	}

	return nil
}

func (r *redisUserRepository) userKey(userID string) string {
	return fmt.Sprintf("campusmeet:user:%s", userID)
}
