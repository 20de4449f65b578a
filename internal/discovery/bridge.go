package discovery

import (
	"context"
	"encoding/json"
	"time"

	kafka "github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka"
	"github.com/ndmlinh/campusmeet-gateway/internal/delivery/kafka/producer"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

// Sender is the gateway's targeted-delivery capability.
type Sender interface {
	SendTo(ctx context.Context, userIDs []string, p *models.Packet)
}

// Bridge glues the queue's match results back onto the live connections of
// both matched users. It satisfies the gateway's Matchmaker contract.
type Bridge struct {
	queue  *Queue
	sender Sender
	prod   producer.Producer
	l      logger.Logger
}

func NewBridge(queue *Queue, sender Sender, prod producer.Producer, l logger.Logger) *Bridge {
	return &Bridge{
		queue:  queue,
		sender: sender,
		prod:   prod,
		l:      l,
	}
}

func (b *Bridge) Join(ctx context.Context, userID string, opts models.MatchOptions) error {
	res, err := b.queue.Join(ctx, userID, opts)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	data, err := json.Marshal(models.DiscoveryQueueMatchData{Channel: res.Channel})
	if err != nil {
		b.l.Errorf(ctx, "discovery.Bridge.Join: %v", err)
		return err
	}

	b.sender.SendTo(ctx, res.UserIDs[:], &models.Packet{
		Type: models.PacketDiscoveryQueueMatch,
		Data: data,
	})

	if b.prod != nil {
		if err := b.prod.PublishDiscoveryMatched(ctx, kafka.DiscoveryMatchedEvent{
			UserIDs:   res.UserIDs[:],
			ChannelID: res.Channel.ID,
			MatchedAt: time.Now(),
		}); err != nil {
			b.l.Errorf(ctx, "discovery.Bridge.Join: %v", err)
		}
	}

	return nil
}

func (b *Bridge) Leave(ctx context.Context, userID string) {
	b.queue.Leave(userID)
}
