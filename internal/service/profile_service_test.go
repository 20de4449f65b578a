package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	pkgLog "github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

func newTestProfileService(users map[string]*models.User, channels *fakeChannelRepo) ProfileService {
	return NewProfileService(&fakeUserRepo{users: users}, channels, pkgLog.InitializeTestZapLogger())
}

func TestGetMatchingProfile(t *testing.T) {
	svc := newTestProfileService(map[string]*models.User{
		"user-1": {ID: "user-1", YearOfStudy: models.YearSecond, Course: "cs201"},
	}, &fakeChannelRepo{})

	p, err := svc.GetMatchingProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.YearSecond, p.YearOfStudy)
	assert.Equal(t, "CS", p.Department)
}

func TestGetMatchingProfileUnknownUser(t *testing.T) {
	svc := newTestProfileService(map[string]*models.User{}, &fakeChannelRepo{})

	_, err := svc.GetMatchingProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestGetMatchingProfileIncomplete(t *testing.T) {
	svc := newTestProfileService(map[string]*models.User{
		"user-1": {ID: "user-1", YearOfStudy: models.YearSecond},
	}, &fakeChannelRepo{})

	_, err := svc.GetMatchingProfile(context.Background(), "user-1")
	assert.ErrorIs(t, err, apperrors.ErrProfileRequired)
}

func TestGetExistingChannelPartners(t *testing.T) {
	svc := newTestProfileService(nil, &fakeChannelRepo{
		partners: map[string][]string{"user-1": {"user-2", "user-3"}},
	})

	partners, err := svc.GetExistingChannelPartners(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, partners, 2)
	assert.Contains(t, partners, "user-2")
	assert.Contains(t, partners, "user-3")
}

func TestGetExistingChannelPartnersEmpty(t *testing.T) {
	svc := newTestProfileService(nil, &fakeChannelRepo{})

	partners, err := svc.GetExistingChannelPartners(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, partners)
}
