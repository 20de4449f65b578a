package models

import "time"

type ChannelType string

const (
	ChannelTypePair ChannelType = "pair"
)

// Channel is the externally visible representation of a shared
// communication channel between matched users.
type Channel struct {
	ID        string      `json:"id"`
	Type      ChannelType `json:"type"`
	UserIDs   []string    `json:"user_ids"`
	Video     *VideoRoom  `json:"video,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// VideoRoom carries per-user access tokens for the provisioned video room.
// Room provisioning itself is owned by an external provider.
type VideoRoom struct {
	RoomName     string            `json:"room_name"`
	AccessTokens map[string]string `json:"access_tokens,omitempty"`
}
