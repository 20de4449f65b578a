package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndmlinh/campusmeet-gateway/config"
	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	pkgLog "github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

type fakeChannelRepo struct {
	existing map[string]*models.Channel // sorted "a|b" -> stored channel
	partners map[string][]string
	err      error
}

func pairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}

func (r *fakeChannelRepo) GetOrCreatePair(_ context.Context, ch *models.Channel) (*models.Channel, bool, error) {
	if r.err != nil {
		return nil, false, r.err
	}

	key := pairKey(ch.UserIDs[0], ch.UserIDs[1])
	if stored, ok := r.existing[key]; ok {
		return stored, false, nil
	}

	if r.existing == nil {
		r.existing = make(map[string]*models.Channel)
	}
	r.existing[key] = ch
	return ch, true, nil
}

func (r *fakeChannelRepo) GetPartners(_ context.Context, userID string) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.partners[userID], nil
}

func newTestChannelService(repo *fakeChannelRepo) ChannelService {
	return NewChannelService(
		repo,
		config.JWTConfig{Secret: testSecret, VideoTokenExpiry: time.Hour},
		pkgLog.InitializeTestZapLogger(),
	)
}

func TestCreatePairChannelWithVideo(t *testing.T) {
	svc := newTestChannelService(&fakeChannelRepo{})

	ch, err := svc.CreatePairChannel(context.Background(), "alice", "bob", ChannelOptions{
		Video:           true,
		WantAccessToken: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ch.ID)
	assert.Equal(t, models.ChannelTypePair, ch.Type)
	assert.Equal(t, []string{"alice", "bob"}, ch.UserIDs)

	require.NotNil(t, ch.Video)
	assert.Equal(t, "meet-"+ch.ID, ch.Video.RoomName)
	require.Len(t, ch.Video.AccessTokens, 2)

	// Each token is verifiable with the configured secret and bound to its
	// user and the room.
	for userID, tokenStr := range ch.Video.AccessTokens {
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		require.NoError(t, err)
		assert.Equal(t, userID, claims["user_id"])
		assert.Equal(t, ch.Video.RoomName, claims["room"])
	}
}

func TestCreatePairChannelWithoutVideo(t *testing.T) {
	svc := newTestChannelService(&fakeChannelRepo{})

	ch, err := svc.CreatePairChannel(context.Background(), "alice", "bob", ChannelOptions{})
	require.NoError(t, err)
	assert.Nil(t, ch.Video)
}

func TestCreatePairChannelIdempotent(t *testing.T) {
	repo := &fakeChannelRepo{}
	svc := newTestChannelService(repo)

	first, err := svc.CreatePairChannel(context.Background(), "alice", "bob", ChannelOptions{Video: true, WantAccessToken: true})
	require.NoError(t, err)

	// Order of the pair does not matter.
	second, err := svc.CreatePairChannel(context.Background(), "bob", "alice", ChannelOptions{Video: true, WantAccessToken: true})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.existing, 1)
}

func TestCreatePairChannelRepositoryError(t *testing.T) {
	svc := newTestChannelService(&fakeChannelRepo{err: errors.New("redis down")})

	_, err := svc.CreatePairChannel(context.Background(), "alice", "bob", ChannelOptions{})
	assert.ErrorIs(t, err, apperrors.ErrChannelCreation)
}
