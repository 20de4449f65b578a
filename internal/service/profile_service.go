package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	repo "github.com/ndmlinh/campusmeet-gateway/internal/repository/redis"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

// ProfileService backs the discovery queue's user-profile lookups.
type ProfileService interface {
	GetMatchingProfile(ctx context.Context, userID string) (*models.MatchingProfile, error)
	GetExistingChannelPartners(ctx context.Context, userID string) (map[string]struct{}, error)
}

type profileService struct {
	users    repo.UserRepository
	channels repo.ChannelRepository
	l        logger.Logger
}

func NewProfileService(users repo.UserRepository, channels repo.ChannelRepository, l logger.Logger) ProfileService {
	return &profileService{
		users:    users,
		channels: channels,
		l:        l,
	}
}

func (s *profileService) GetMatchingProfile(ctx context.Context, userID string) (*models.MatchingProfile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if err == redis.Nil {
			s.l.Warnf(ctx, "profileService.GetMatchingProfile: %v", apperrors.ErrUserNotFound)
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !u.HasMatchingProfile() {
		return nil, apperrors.ErrProfileRequired
	}

	return &models.MatchingProfile{
		YearOfStudy: u.YearOfStudy,
		Department:  models.DepartmentFromCourse(u.Course),
	}, nil
}

func (s *profileService) GetExistingChannelPartners(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids, err := s.channels.GetPartners(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel partners: %w", err)
	}

	partners := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		partners[id] = struct{}{}
	}

	return partners, nil
}
