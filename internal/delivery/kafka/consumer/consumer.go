package consumer

import (
	"context"
	"sync"

	"github.com/IBM/sarama"

	kafka "github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

// Broadcaster is the gateway-side fan-out used to push REST-originated
// message events to every authenticated connection.
type Broadcaster interface {
	Broadcast(ctx context.Context, p *models.Packet)
}

type Consumer struct {
	consGr sarama.ConsumerGroup
	bc     Broadcaster
	l      logger.Logger
	wg     sync.WaitGroup
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	bc Broadcaster,
	l logger.Logger,
) *Consumer {
	return &Consumer{
		consGr: consGr,
		bc:     bc,
		l:      l,
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case kafka.TopicMessageCreated:
		return c.HandleMessageCreated(ctx, msg)
	case kafka.TopicMessageDeleted:
		return c.HandleMessageDeleted(ctx, msg)
	default:
		c.l.Warn(ctx, "Unknown topic", "topic", msg.Topic)
		return nil
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	topics := []string{kafka.TopicMessageCreated, kafka.TopicMessageDeleted}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
			}

			if ctx.Err() != nil {
				c.l.Infof(ctx, "delivery.kafka.consumer.consumer.Start: %v", ctx.Err())
				return
			}
		}
	}()

	// Handle errors
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
		}
	}()

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.processMessage(ss.Context(), message); err != nil {
				c.l.Errorf(ss.Context(), "delivery.kafka.consumer.consumer.ConsumeClaim: %v", err)
				continue
			}

			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}
