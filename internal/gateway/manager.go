package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ndmlinh/campusmeet-gateway/config"
	kafka "github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka"
	"github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka/producer"
	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	pkgLog "github.com/ndmlinh/campusmeet-gateway/pkg/logger"
	"github.com/ndmlinh/campusmeet-gateway/pkg/util"
)

// TokenResolver is the external user-lookup collaborator. It owns signature
// and expiry verification of gateway tokens.
type TokenResolver interface {
	ResolveFromToken(ctx context.Context, token string) (string, error)
}

// Matchmaker is the discovery-queue side of the gateway, bound after
// construction because the delivery bridge needs the manager's SendTo.
type Matchmaker interface {
	Join(ctx context.Context, userID string, opts models.MatchOptions) error
	Leave(ctx context.Context, userID string)
}

// Manager runs the per-connection protocol state machine: IDENTIFY
// handshake, packet dispatch, liveness sweep, and teardown. A connection is
// Unauthenticated until its session is registered, then Authenticated until
// the transport closes or the sweep evicts it.
type Manager struct {
	registry   *Registry
	auth       TokenResolver
	matchmaker Matchmaker
	prod       producer.Producer
	cfg        config.GatewayConfig
	l          pkgLog.Logger
}

func NewManager(
	registry *Registry,
	auth TokenResolver,
	prod producer.Producer,
	cfg config.GatewayConfig,
	l pkgLog.Logger,
) *Manager {
	return &Manager{
		registry: registry,
		auth:     auth,
		prod:     prod,
		cfg:      cfg,
		l:        l,
	}
}

// BindMatchmaker wires the discovery bridge in. Must be called before the
// first connection is accepted.
func (m *Manager) BindMatchmaker(mm Matchmaker) {
	m.matchmaker = mm
}

// SessionCount reports the number of authenticated connections.
func (m *Manager) SessionCount() int {
	return m.registry.Len()
}

// HandleRaw processes one inbound frame from conn. Malformed input severs
// the connection: a peer that sends bytes we cannot parse is not trusted
// with further processing.
func (m *Manager) HandleRaw(ctx context.Context, conn Conn, raw any) {
	p, err := Decode(raw)
	if err != nil {
		m.l.Warnf(ctx, "gateway.Manager.HandleRaw: closing %s: %v", conn.ID(), err)
		m.closeConn(ctx, conn)
		return
	}

	m.handlePacket(ctx, conn, p)
}

func (m *Manager) handlePacket(ctx context.Context, conn Conn, p *models.Packet) {
	switch p.Type {
	case models.PacketIdentify:
		m.handleIdentify(ctx, conn, p)
	case models.PacketJoinDiscoveryQueue:
		m.handleJoinDiscoveryQueue(ctx, conn, p)
	case models.PacketLeaveDiscoveryQueue:
		m.handleLeaveDiscoveryQueue(ctx, conn)
	default:
		// HELLO, MESSAGE_CREATE, MESSAGE_DELETE and DISCOVERY_QUEUE_MATCH
		// are server-to-client dispatches. A client sending one is a
		// protocol violation.
		m.l.Warnf(ctx, "gateway.Manager.handlePacket: client %s sent dispatch type %s", conn.ID(), p.Type)
		m.closeConn(ctx, conn)
	}
}

func (m *Manager) handleIdentify(ctx context.Context, conn Conn, p *models.Packet) {
	if userID, ok := m.registry.UserID(conn); ok {
		// No re-authentication. The existing session is torn down by the
		// disconnect path, not overwritten here.
		m.l.Warnf(ctx, "gateway.Manager.handleIdentify: re-identify on authenticated connection %s (user %s)", conn.ID(), userID)
		m.closeConn(ctx, conn)
		return
	}

	var data models.IdentifyData
	if err := json.Unmarshal(p.Data, &data); err != nil || data.Token == "" {
		m.l.Warnf(ctx, "gateway.Manager.handleIdentify: bad identify payload on %s", conn.ID())
		m.closeConn(ctx, conn)
		return
	}

	userID, err := m.auth.ResolveFromToken(ctx, data.Token)
	if err != nil {
		m.l.Warnf(ctx, "gateway.Manager.handleIdentify: %v", err)
		m.closeConn(ctx, conn)
		return
	}

	if _, err := m.registry.Register(conn, userID); err != nil {
		m.l.Warnf(ctx, "gateway.Manager.handleIdentify: %v", err)
		m.closeConn(ctx, conn)
		return
	}

	hello, err := NewPacket(models.PacketHello, models.HelloData{
		Time: util.TimeToISO8601Str(time.Now()),
	})
	if err != nil {
		m.l.Errorf(ctx, "gateway.Manager.handleIdentify: %v", err)
		return
	}
	m.send(ctx, conn, hello)

	if m.prod != nil {
		if err := m.prod.PublishGatewayConnected(ctx, kafka.GatewayConnectedEvent{
			UserID:      userID,
			ConnectedAt: time.Now(),
		}); err != nil {
			m.l.Errorf(ctx, "gateway.Manager.handleIdentify: %v", err)
		}
	}

	m.l.Infof(ctx, "gateway: connection %s authenticated as %s", conn.ID(), userID)
}

func (m *Manager) handleJoinDiscoveryQueue(ctx context.Context, conn Conn, p *models.Packet) {
	userID, ok := m.registry.UserID(conn)
	if !ok {
		m.l.Warnf(ctx, "gateway.Manager.handleJoinDiscoveryQueue: unauthenticated connection %s", conn.ID())
		return
	}

	var data models.JoinDiscoveryQueueData
	if err := json.Unmarshal(p.Data, &data); err != nil {
		m.l.Warnf(ctx, "gateway.Manager.handleJoinDiscoveryQueue: bad payload from %s", userID)
		m.closeConn(ctx, conn)
		return
	}

	if err := m.matchmaker.Join(ctx, userID, data.Options); err != nil {
		// Queue errors are recoverable per call. The connection stays open.
		m.l.Warnf(ctx, "gateway.Manager.handleJoinDiscoveryQueue: join failed for %s: %v", userID, err)
	}
}

func (m *Manager) handleLeaveDiscoveryQueue(ctx context.Context, conn Conn) {
	userID, ok := m.registry.UserID(conn)
	if !ok {
		m.l.Warnf(ctx, "gateway.Manager.handleLeaveDiscoveryQueue: unauthenticated connection %s", conn.ID())
		return
	}

	m.matchmaker.Leave(ctx, userID)
}

// HandlePong records a liveness response from conn.
func (m *Manager) HandlePong(conn Conn) {
	m.registry.Touch(conn)
}

// HandleDisconnect runs the teardown path for a closed or errored
// connection. Idempotent: the sweep and the transport close handler may
// both land here.
func (m *Manager) HandleDisconnect(ctx context.Context, conn Conn) {
	userID, ok := m.registry.UserID(conn)
	m.registry.Unregister(conn)

	if !ok {
		return
	}

	m.teardownUser(ctx, userID)
}

func (m *Manager) teardownUser(ctx context.Context, userID string) {
	// A queued user with a dead connection cannot be matched; drop the
	// stale entry instead of leaving it for a peer to pair with.
	if m.matchmaker != nil {
		m.matchmaker.Leave(ctx, userID)
	}

	if m.prod != nil {
		if err := m.prod.PublishGatewayDisconnected(ctx, kafka.GatewayDisconnectedEvent{
			UserID:         userID,
			DisconnectedAt: time.Now(),
		}); err != nil {
			m.l.Errorf(ctx, "gateway.Manager.teardownUser: %v", err)
		}
	}

	m.l.Infof(ctx, "gateway: user %s disconnected", userID)
}

// Broadcast serializes p once and delivers the identical bytes to every
// authenticated connection. Best effort: one failed send does not abort
// delivery to the rest.
func (m *Manager) Broadcast(ctx context.Context, p *models.Packet) {
	frame, err := Encode(p)
	if err != nil {
		m.l.Errorf(ctx, "gateway.Manager.Broadcast: %v", err)
		return
	}

	for _, conn := range m.registry.Conns() {
		if err := conn.WriteText(frame); err != nil {
			m.l.Warnf(ctx, "gateway.Manager.Broadcast: send to %s failed: %v", conn.ID(), err)
		}
	}
}

// SendTo delivers p to each listed user that currently holds an
// authenticated connection. Duplicate ids are collapsed; offline ids are
// skipped without error.
func (m *Manager) SendTo(ctx context.Context, userIDs []string, p *models.Packet) {
	frame, err := Encode(p)
	if err != nil {
		m.l.Errorf(ctx, "gateway.Manager.SendTo: %v", err)
		return
	}

	seen := make(map[string]struct{}, len(userIDs))
	deduped := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}

	for _, conn := range m.registry.FindByUserIDs(deduped) {
		if err := conn.WriteText(frame); err != nil {
			m.l.Warnf(ctx, "gateway.Manager.SendTo: send to %s failed: %v", conn.ID(), err)
		}
	}
}

// Run drives the periodic liveness probes and the expiry sweep until ctx is
// cancelled.
func (m *Manager) Run(ctx context.Context) {
	pingTicker := time.NewTicker(m.cfg.PingInterval)
	sweepTicker := time.NewTicker(m.cfg.SweepInterval)
	defer pingTicker.Stop()
	defer sweepTicker.Stop()

	m.l.Infof(ctx, "gateway: liveness loop started (ping %v, sweep %v, max silence %v)",
		m.cfg.PingInterval, m.cfg.SweepInterval, m.cfg.MaxSilence)

	for {
		select {
		case <-ctx.Done():
			m.l.Info(ctx, "gateway: liveness loop stopped")
			return
		case <-pingTicker.C:
			for _, conn := range m.registry.Conns() {
				if err := conn.Ping(); err != nil {
					m.l.Warnf(ctx, "gateway.Manager.Run: ping to %s failed: %v", conn.ID(), err)
				}
			}
		case <-sweepTicker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep evicts connections silent for longer than the configured maximum
// and force-closes their transports.
func (m *Manager) Sweep(ctx context.Context) {
	evicted := m.registry.SweepExpired(m.cfg.MaxSilence)
	for _, ss := range evicted {
		m.l.Infof(ctx, "gateway: evicting silent connection %s (user %s)", ss.Conn.ID(), ss.UserID)
		m.closeConn(ctx, ss.Conn)
		m.teardownUser(ctx, ss.UserID)
	}
}

func (m *Manager) send(ctx context.Context, conn Conn, p *models.Packet) {
	frame, err := Encode(p)
	if err != nil {
		m.l.Errorf(ctx, "gateway.Manager.send: %v", err)
		return
	}
	if err := conn.WriteText(frame); err != nil {
		m.l.Warnf(ctx, "gateway.Manager.send: send to %s failed: %v", conn.ID(), err)
	}
}

func (m *Manager) closeConn(ctx context.Context, conn Conn) {
	if err := conn.Close(); err != nil && err != apperrors.ErrConnectionClosed {
		m.l.Debugf(ctx, "gateway.Manager.closeConn: %v", err)
	}
}
