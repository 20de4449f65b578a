package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	kafka "github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
)

func (c *Consumer) HandleMessageCreated(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.MessageCreatedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleMessageCreated: %v", err)
		return err
	}

	data, err := json.Marshal(models.MessageCreateData{Message: e.Message})
	if err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleMessageCreated: %v", err)
		return err
	}

	c.bc.Broadcast(ctx, &models.Packet{Type: models.PacketMessageCreate, Data: data})
	return nil
}

func (c *Consumer) HandleMessageDeleted(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.MessageDeletedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleMessageDeleted: %v", err)
		return err
	}

	data, err := json.Marshal(models.MessageDeleteData{
		MessageID: e.MessageID,
		ChannelID: e.ChannelID,
	})
	if err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleMessageDeleted: %v", err)
		return err
	}

	c.bc.Broadcast(ctx, &models.Packet{Type: models.PacketMessageDelete, Data: data})
	return nil
}
