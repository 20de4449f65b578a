package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
)

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")

	ss, err := r.Register(conn, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", ss.UserID)
	assert.Equal(t, 1, r.Len())

	userID, ok := r.UserID(conn)
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)
}

func TestRegisterTwiceFails(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")

	_, err := r.Register(conn, "user-1")
	require.NoError(t, err)

	_, err = r.Register(conn, "user-2")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAuthenticated)

	// The original session is untouched.
	userID, ok := r.UserID(conn)
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")

	_, err := r.Register(conn, "user-1")
	require.NoError(t, err)

	r.Unregister(conn)
	r.Unregister(conn)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.FindByUserIDs([]string{"user-1"}))
}

func TestFindByUserIDsSkipsUnknown(t *testing.T) {
	r := NewRegistry()
	connA := newFakeConn("a")
	connB := newFakeConn("b")

	_, err := r.Register(connA, "user-a")
	require.NoError(t, err)
	_, err = r.Register(connB, "user-b")
	require.NoError(t, err)

	conns := r.FindByUserIDs([]string{"user-a", "ghost", "user-b"})
	assert.Len(t, conns, 2)
}

func TestNewLoginTakesOverReverseMapping(t *testing.T) {
	r := NewRegistry()
	old := newFakeConn("old")
	fresh := newFakeConn("fresh")

	_, err := r.Register(old, "user-1")
	require.NoError(t, err)
	_, err = r.Register(fresh, "user-1")
	require.NoError(t, err)

	conns := r.FindByUserIDs([]string{"user-1"})
	require.Len(t, conns, 1)
	assert.Equal(t, "fresh", conns[0].ID())

	// Dropping the old connection must not free the fresh mapping.
	r.Unregister(old)
	conns = r.FindByUserIDs([]string{"user-1"})
	require.Len(t, conns, 1)
	assert.Equal(t, "fresh", conns[0].ID())
}

func TestSweepExpired(t *testing.T) {
	r := NewRegistry()
	stale := newFakeConn("stale")
	live := newFakeConn("live")

	_, err := r.Register(stale, "user-stale")
	require.NoError(t, err)
	_, err = r.Register(live, "user-live")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	r.Touch(live)

	evicted := r.SweepExpired(2 * time.Millisecond)
	require.Len(t, evicted, 1)
	assert.Equal(t, "user-stale", evicted[0].UserID)
	assert.Equal(t, 1, r.Len())

	// Already evicted: a second sweep finds nothing.
	evicted = r.SweepExpired(2 * time.Millisecond)
	assert.Empty(t, evicted)
}

func TestTouchUnknownConnIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Touch(newFakeConn("ghost"))
	assert.Equal(t, 0, r.Len())
}
