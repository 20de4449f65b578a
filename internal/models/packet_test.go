package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPacketTypeKnown(t *testing.T) {
	for _, pt := range []PacketType{
		PacketIdentify, PacketHello,
		PacketMessageCreate, PacketMessageDelete,
		PacketJoinDiscoveryQueue, PacketLeaveDiscoveryQueue,
		PacketDiscoveryQueueMatch,
	} {
		assert.True(t, pt.Known(), "type %s", pt)
	}

	assert.False(t, PacketType("SHRUG").Known())
	assert.False(t, PacketType("").Known())
}
