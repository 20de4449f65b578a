package kafka

import (
	"encoding/json"
	"time"
)

// Events published BY the gateway

type GatewayConnectedEvent struct {
	UserID      string    `json:"user_id"`
	ConnectedAt time.Time `json:"connected_at"`
	Timestamp   time.Time `json:"timestamp"`
}

type GatewayDisconnectedEvent struct {
	UserID         string    `json:"user_id"`
	DisconnectedAt time.Time `json:"disconnected_at"`
	Timestamp      time.Time `json:"timestamp"`
}

type DiscoveryMatchedEvent struct {
	UserIDs   []string  `json:"user_ids"`
	ChannelID string    `json:"channel_id"`
	MatchedAt time.Time `json:"matched_at"`
	Timestamp time.Time `json:"timestamp"`
}

// Events consumed BY the gateway (from the REST backend)

type MessageCreatedEvent struct {
	Message   json.RawMessage `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

type MessageDeletedEvent struct {
	MessageID string    `json:"message_id"`
	ChannelID string    `json:"channel_id"`
	Timestamp time.Time `json:"timestamp"`
}
