package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ndmlinh/campusmeet-gateway/config"
	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	repo "github.com/ndmlinh/campusmeet-gateway/internal/repository/redis"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

// ChannelOptions control what a freshly created pair channel carries.
type ChannelOptions struct {
	Video           bool
	WantAccessToken bool
}

// ChannelService creates shared communication channels for matched pairs.
// Creation is idempotent: an existing channel between the same two users
// is returned instead of a duplicate.
type ChannelService interface {
	CreatePairChannel(ctx context.Context, userA, userB string, opts ChannelOptions) (*models.Channel, error)
}

type channelService struct {
	repo repo.ChannelRepository
	conf config.JWTConfig
	l    logger.Logger
}

func NewChannelService(repo repo.ChannelRepository, conf config.JWTConfig, l logger.Logger) ChannelService {
	return &channelService{
		repo: repo,
		conf: conf,
		l:    l,
	}
}

func (s *channelService) CreatePairChannel(ctx context.Context, userA, userB string, opts ChannelOptions) (*models.Channel, error) {
	ch := &models.Channel{
		ID:        uuid.New().String(),
		Type:      models.ChannelTypePair,
		UserIDs:   []string{userA, userB},
		CreatedAt: time.Now(),
	}

	if opts.Video {
		room := &models.VideoRoom{
			RoomName: fmt.Sprintf("meet-%s", ch.ID),
		}

		if opts.WantAccessToken {
			room.AccessTokens = make(map[string]string, 2)
			for _, userID := range ch.UserIDs {
				token, err := s.signRoomToken(room.RoomName, userID)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", apperrors.ErrChannelCreation, err)
				}
				room.AccessTokens[userID] = token
			}
		}

		ch.Video = room
	}

	stored, created, err := s.repo.GetOrCreatePair(ctx, ch)
	if err != nil {
		s.l.Errorf(ctx, "channelService.CreatePairChannel: %v", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrChannelCreation, err)
	}

	if created {
		s.l.Infof(ctx, "channel %s created for pair (%s, %s)", stored.ID, userA, userB)
	} else {
		s.l.Debugf(ctx, "existing channel %s reused for pair (%s, %s)", stored.ID, userA, userB)
	}

	return stored, nil
}

func (s *channelService) signRoomToken(roomName, userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"room":    roomName,
		"user_id": userID,
		"exp":     now.Add(s.conf.VideoTokenExpiry).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(s.conf.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign room token: %w", err)
	}

	return tokenStr, nil
}
