package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndmlinh/campusmeet-gateway/config"
	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	pkgLog "github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	frames []string
	pings  int
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) WriteText(data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return apperrors.ErrConnectionClosed
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return apperrors.ErrConnectionClosed
	}
	c.pings++
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) sentFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.frames...)
}

type fakeResolver struct {
	users map[string]string // token -> userID
}

func (r *fakeResolver) ResolveFromToken(_ context.Context, token string) (string, error) {
	userID, ok := r.users[token]
	if !ok {
		return "", apperrors.ErrAuthentication
	}
	return userID, nil
}

type fakeMatchmaker struct {
	mu      sync.Mutex
	joins   []string
	leaves  []string
	opts    map[string]models.MatchOptions
	joinErr error
}

func newFakeMatchmaker() *fakeMatchmaker {
	return &fakeMatchmaker{opts: make(map[string]models.MatchOptions)}
}

func (m *fakeMatchmaker) Join(_ context.Context, userID string, opts models.MatchOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.joinErr != nil {
		return m.joinErr
	}
	m.joins = append(m.joins, userID)
	m.opts[userID] = opts
	return nil
}

func (m *fakeMatchmaker) Leave(_ context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves = append(m.leaves, userID)
}

func (m *fakeMatchmaker) leaveCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, id := range m.leaves {
		if id == userID {
			n++
		}
	}
	return n
}

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		PingInterval:  15 * time.Second,
		MaxSilence:    45 * time.Second,
		SweepInterval: 15 * time.Second,
		SendBuffer:    32,
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeMatchmaker) {
	t.Helper()

	mgr := NewManager(
		NewRegistry(),
		&fakeResolver{users: map[string]string{"token-a": "user-a", "token-b": "user-b"}},
		nil,
		testGatewayConfig(),
		pkgLog.InitializeTestZapLogger(),
	)
	mm := newFakeMatchmaker()
	mgr.BindMatchmaker(mm)
	return mgr, mm
}

func identify(t *testing.T, mgr *Manager, conn Conn, token string) {
	t.Helper()
	mgr.HandleRaw(context.Background(), conn, fmt.Sprintf(`{"type":"IDENTIFY","data":{"token":%q}}`, token))
}

func TestIdentifyRepliesHello(t *testing.T) {
	mgr, _ := newTestManager(t)
	conn := newFakeConn("c1")

	identify(t, mgr, conn, "token-a")

	require.False(t, conn.isClosed())
	frames := conn.sentFrames()
	require.Len(t, frames, 1)

	p, err := Decode(frames[0])
	require.NoError(t, err)
	assert.Equal(t, models.PacketHello, p.Type)

	var hello models.HelloData
	require.NoError(t, jsonUnmarshal(p.Data, &hello))
	ts, err := time.Parse(time.RFC3339, hello.Time)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)

	assert.Equal(t, 1, mgr.SessionCount())
}

func TestIdentifyBadTokenCloses(t *testing.T) {
	mgr, _ := newTestManager(t)
	conn := newFakeConn("c1")

	identify(t, mgr, conn, "forged")

	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, mgr.SessionCount())
	assert.Empty(t, conn.sentFrames())
}

func TestIdentifyEmptyTokenCloses(t *testing.T) {
	mgr, _ := newTestManager(t)
	conn := newFakeConn("c1")

	mgr.HandleRaw(context.Background(), conn, `{"type":"IDENTIFY","data":{"token":""}}`)

	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, mgr.SessionCount())
}

func TestReIdentifyCloses(t *testing.T) {
	mgr, _ := newTestManager(t)
	conn := newFakeConn("c1")

	identify(t, mgr, conn, "token-a")
	require.False(t, conn.isClosed())

	identify(t, mgr, conn, "token-b")
	assert.True(t, conn.isClosed())
}

func TestMalformedFrameCloses(t *testing.T) {
	mgr, _ := newTestManager(t)
	conn := newFakeConn("c1")

	mgr.HandleRaw(context.Background(), conn, `{"type":`)

	assert.True(t, conn.isClosed())
}

func TestClientSentDispatchTypeCloses(t *testing.T) {
	mgr, _ := newTestManager(t)
	conn := newFakeConn("c1")
	identify(t, mgr, conn, "token-a")

	mgr.HandleRaw(context.Background(), conn, `{"type":"HELLO","data":{"time":"now"}}`)

	assert.True(t, conn.isClosed())
}

func TestJoinQueueUnauthenticatedIgnored(t *testing.T) {
	mgr, mm := newTestManager(t)
	conn := newFakeConn("c1")

	mgr.HandleRaw(context.Background(), conn, `{"type":"JOIN_DISCOVERY_QUEUE","data":{"options":{"sameYear":true,"sameDepartment":false}}}`)

	assert.False(t, conn.isClosed())
	assert.Empty(t, mm.joins)
}

func TestJoinQueueForwardsOptions(t *testing.T) {
	mgr, mm := newTestManager(t)
	conn := newFakeConn("c1")
	identify(t, mgr, conn, "token-a")

	mgr.HandleRaw(context.Background(), conn, `{"type":"JOIN_DISCOVERY_QUEUE","data":{"options":{"sameYear":true,"sameDepartment":false}}}`)

	require.Equal(t, []string{"user-a"}, mm.joins)
	assert.Equal(t, models.MatchOptions{SameYear: true, SameDepartment: false}, mm.opts["user-a"])
	assert.False(t, conn.isClosed())
}

func TestJoinQueueBadPayloadCloses(t *testing.T) {
	mgr, mm := newTestManager(t)
	conn := newFakeConn("c1")
	identify(t, mgr, conn, "token-a")

	mgr.HandleRaw(context.Background(), conn, `{"type":"JOIN_DISCOVERY_QUEUE","data":{"options":"nope"}}`)

	assert.True(t, conn.isClosed())
	assert.Empty(t, mm.joins)
}

func TestJoinQueueErrorKeepsConnectionOpen(t *testing.T) {
	mgr, mm := newTestManager(t)
	mm.joinErr = errors.New("profile missing")
	conn := newFakeConn("c1")
	identify(t, mgr, conn, "token-a")

	mgr.HandleRaw(context.Background(), conn, `{"type":"JOIN_DISCOVERY_QUEUE","data":{"options":{}}}`)

	assert.False(t, conn.isClosed())
	assert.Equal(t, 1, mgr.SessionCount())
}

func TestLeaveQueueForwards(t *testing.T) {
	mgr, mm := newTestManager(t)
	conn := newFakeConn("c1")
	identify(t, mgr, conn, "token-a")

	mgr.HandleRaw(context.Background(), conn, `{"type":"LEAVE_DISCOVERY_QUEUE"}`)

	assert.Equal(t, 1, mm.leaveCount("user-a"))
}

func TestBroadcastReachesOnlyAuthenticated(t *testing.T) {
	mgr, _ := newTestManager(t)
	authedA := newFakeConn("a")
	authedB := newFakeConn("b")
	anon := newFakeConn("anon")

	identify(t, mgr, authedA, "token-a")
	identify(t, mgr, authedB, "token-b")

	p, err := NewPacket(models.PacketMessageCreate, models.MessageCreateData{Message: []byte(`{"id":"m1"}`)})
	require.NoError(t, err)
	mgr.Broadcast(context.Background(), p)

	require.Len(t, authedA.sentFrames(), 2) // HELLO + broadcast
	require.Len(t, authedB.sentFrames(), 2)
	assert.Equal(t, authedA.sentFrames()[1], authedB.sentFrames()[1])
	assert.Empty(t, anon.sentFrames())
}

func TestSendToDedupesAndSkipsOffline(t *testing.T) {
	mgr, _ := newTestManager(t)
	conn := newFakeConn("a")
	identify(t, mgr, conn, "token-a")

	p, err := NewPacket(models.PacketMessageDelete, models.MessageDeleteData{MessageID: "m1", ChannelID: "ch1"})
	require.NoError(t, err)
	mgr.SendTo(context.Background(), []string{"user-a", "user-a", "offline"}, p)

	assert.Len(t, conn.sentFrames(), 2) // HELLO + one targeted send
}

func TestDisconnectTearsDownQueueEntry(t *testing.T) {
	mgr, mm := newTestManager(t)
	conn := newFakeConn("c1")
	identify(t, mgr, conn, "token-a")

	mgr.HandleDisconnect(context.Background(), conn)

	assert.Equal(t, 0, mgr.SessionCount())
	assert.Equal(t, 1, mm.leaveCount("user-a"))

	// Second disconnect for the same conn is a no-op.
	mgr.HandleDisconnect(context.Background(), conn)
	assert.Equal(t, 1, mm.leaveCount("user-a"))
}

func TestSweepEvictsSilentAndLeavesQueue(t *testing.T) {
	cfg := testGatewayConfig()
	cfg.MaxSilence = time.Millisecond

	mgr := NewManager(
		NewRegistry(),
		&fakeResolver{users: map[string]string{"token-a": "user-a"}},
		nil,
		cfg,
		pkgLog.InitializeTestZapLogger(),
	)
	mm := newFakeMatchmaker()
	mgr.BindMatchmaker(mm)

	conn := newFakeConn("c1")
	identify(t, mgr, conn, "token-a")
	require.Equal(t, 1, mgr.SessionCount())

	time.Sleep(5 * time.Millisecond)
	mgr.Sweep(context.Background())

	assert.Equal(t, 0, mgr.SessionCount())
	assert.True(t, conn.isClosed())
	assert.Equal(t, 1, mm.leaveCount("user-a"))
}

func TestPongKeepsSessionAlive(t *testing.T) {
	cfg := testGatewayConfig()
	cfg.MaxSilence = 20 * time.Millisecond

	mgr := NewManager(
		NewRegistry(),
		&fakeResolver{users: map[string]string{"token-a": "user-a"}},
		nil,
		cfg,
		pkgLog.InitializeTestZapLogger(),
	)
	mgr.BindMatchmaker(newFakeMatchmaker())

	conn := newFakeConn("c1")
	identify(t, mgr, conn, "token-a")

	time.Sleep(10 * time.Millisecond)
	mgr.HandlePong(conn)
	mgr.Sweep(context.Background())

	assert.Equal(t, 1, mgr.SessionCount())
	assert.False(t, conn.isClosed())
}
