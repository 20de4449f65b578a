package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	kafka "github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

type Producer interface {
	PublishGatewayConnected(ctx context.Context, event kafka.GatewayConnectedEvent) error
	PublishGatewayDisconnected(ctx context.Context, event kafka.GatewayDisconnectedEvent) error
	PublishDiscoveryMatched(ctx context.Context, event kafka.DiscoveryMatchedEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishGatewayConnected(ctx context.Context, event kafka.GatewayConnectedEvent) error {
	event.Timestamp = time.Now()
	return p.publish(ctx, kafka.TopicGatewayConnected, event.UserID, event)
}

func (p *implProducer) PublishGatewayDisconnected(ctx context.Context, event kafka.GatewayDisconnectedEvent) error {
	event.Timestamp = time.Now()
	return p.publish(ctx, kafka.TopicGatewayDisconnected, event.UserID, event)
}

func (p *implProducer) PublishDiscoveryMatched(ctx context.Context, event kafka.DiscoveryMatchedEvent) error {
	event.Timestamp = time.Now()
	return p.publish(ctx, kafka.TopicDiscoveryMatched, event.ChannelID, event)
}

func (p *implProducer) publish(ctx context.Context, topic, key string, event any) error {
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.publish: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key), // Partition by key for per-entity ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(msg)
	return err
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
