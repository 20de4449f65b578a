package kafka

const (
	TopicGatewayConnected    = "gateway.connected"
	TopicGatewayDisconnected = "gateway.disconnected"
	TopicDiscoveryMatched    = "discovery.matched"

	TopicMessageCreated = "message.created"
	TopicMessageDeleted = "message.deleted"
)
