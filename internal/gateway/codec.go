package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
)

// Decode parses one inbound frame into a typed packet. Accepted raw forms:
// a string, a single byte buffer, or an ordered sequence of byte fragments
// that are concatenated before parsing. Anything else is a protocol error.
func Decode(raw any) (*models.Packet, error) {
	var data []byte

	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case [][]byte:
		data = bytes.Join(v, nil)
	default:
		return nil, fmt.Errorf("%w: unsupported frame type %T", apperrors.ErrProtocol, raw)
	}

	var p models.Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocol, err)
	}

	if !p.Type.Known() {
		return nil, fmt.Errorf("%w: unknown packet type %q", apperrors.ErrProtocol, p.Type)
	}

	return &p, nil
}

// Encode serializes an outbound packet to its JSON wire form.
func Encode(p *models.Packet) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode packet: %w", err)
	}
	return string(data), nil
}

// NewPacket builds a packet of the given type around an already-typed payload.
func NewPacket(t models.PacketType, payload any) (*models.Packet, error) {
	if payload == nil {
		return &models.Packet{Type: t}, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", t, err)
	}

	return &models.Packet{Type: t, Data: data}, nil
}
