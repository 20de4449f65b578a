package discovery

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	pkgLog "github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

type fakeSender struct {
	mu      sync.Mutex
	userIDs [][]string
	packets []*models.Packet
}

func (s *fakeSender) SendTo(_ context.Context, userIDs []string, p *models.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userIDs = append(s.userIDs, userIDs)
	s.packets = append(s.packets, p)
}

func TestBridgeDeliversMatchToBothUsers(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.add("alice", models.YearSecond, "CS")
	profiles.add("bob", models.YearSecond, "CS")
	q := newTestQueue(profiles, &fakeChannels{})
	sender := &fakeSender{}
	b := NewBridge(q, sender, nil, pkgLog.InitializeTestZapLogger())

	require.NoError(t, b.Join(context.Background(), "alice", models.MatchOptions{}))
	require.Empty(t, sender.packets)

	require.NoError(t, b.Join(context.Background(), "bob", models.MatchOptions{}))

	require.Len(t, sender.packets, 1)
	assert.Equal(t, []string{"alice", "bob"}, sender.userIDs[0])

	p := sender.packets[0]
	assert.Equal(t, models.PacketDiscoveryQueueMatch, p.Type)

	var data models.DiscoveryQueueMatchData
	require.NoError(t, json.Unmarshal(p.Data, &data))
	require.NotNil(t, data.Channel)
	assert.ElementsMatch(t, []string{"alice", "bob"}, data.Channel.UserIDs)
}

func TestBridgeJoinErrorNotDelivered(t *testing.T) {
	q := newTestQueue(newFakeProfiles(), &fakeChannels{})
	sender := &fakeSender{}
	b := NewBridge(q, sender, nil, pkgLog.InitializeTestZapLogger())

	err := b.Join(context.Background(), "ghost", models.MatchOptions{})
	assert.Error(t, err)
	assert.Empty(t, sender.packets)
}

func TestBridgeLeave(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.add("alice", models.YearSecond, "CS")
	q := newTestQueue(profiles, &fakeChannels{})
	b := NewBridge(q, &fakeSender{}, nil, pkgLog.InitializeTestZapLogger())

	require.NoError(t, b.Join(context.Background(), "alice", models.MatchOptions{}))
	require.True(t, q.Queued("alice"))

	b.Leave(context.Background(), "alice")
	assert.False(t, q.Queued("alice"))
}
