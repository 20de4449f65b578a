package models

import "encoding/json"

// PacketType tags every frame exchanged over the gateway socket.
type PacketType string

const (
	PacketIdentify            PacketType = "IDENTIFY"
	PacketHello               PacketType = "HELLO"
	PacketMessageCreate       PacketType = "MESSAGE_CREATE"
	PacketMessageDelete       PacketType = "MESSAGE_DELETE"
	PacketJoinDiscoveryQueue  PacketType = "JOIN_DISCOVERY_QUEUE"
	PacketLeaveDiscoveryQueue PacketType = "LEAVE_DISCOVERY_QUEUE"
	PacketDiscoveryQueueMatch PacketType = "DISCOVERY_QUEUE_MATCH"
)

var knownPacketTypes = map[PacketType]struct{}{
	PacketIdentify:            {},
	PacketHello:               {},
	PacketMessageCreate:       {},
	PacketMessageDelete:       {},
	PacketJoinDiscoveryQueue:  {},
	PacketLeaveDiscoveryQueue: {},
	PacketDiscoveryQueueMatch: {},
}

func (t PacketType) Known() bool {
	_, ok := knownPacketTypes[t]
	return ok
}

// Packet is the wire envelope. Data stays raw until the handler for the
// tagged type narrows it to the matching payload struct.
type Packet struct {
	Type PacketType      `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type IdentifyData struct {
	Token string `json:"token"`
}

type HelloData struct {
	Time string `json:"time"`
}

type MessageCreateData struct {
	Message json.RawMessage `json:"message"`
}

type MessageDeleteData struct {
	MessageID string `json:"messageID"`
	ChannelID string `json:"channelID"`
}

type JoinDiscoveryQueueData struct {
	Options MatchOptions `json:"options"`
}

type DiscoveryQueueMatchData struct {
	Channel *Channel `json:"channel"`
}
