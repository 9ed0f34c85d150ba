package databases

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const fabricChannelPrefix = "room."

// RedisFabric fans room events out across server instances over Redis
// pub/sub. Every instance publishes here and receives its own publishes back
// through the subscription, so local and remote events take the same
// delivery path.
type RedisFabric struct {
	client *redis.Client
}

// NewRedisFabric returns a fabric over the given Redis client
func NewRedisFabric(client *redis.Client) *RedisFabric {
	return &RedisFabric{client: client}
}

// Publish sends payload to the room's channel
func (f *RedisFabric) Publish(ctx context.Context, roomID string, payload []byte) error {
	return f.client.Publish(ctx, fabricChannelPrefix+roomID, payload).Err()
}

// Subscribe registers handler for every room channel. Delivery runs on a
// dedicated goroutine until ctx is canceled.
func (f *RedisFabric) Subscribe(ctx context.Context, handler func(roomID string, payload []byte)) error {
	sub := f.client.PSubscribe(ctx, fabricChannelPrefix+"*")
	// wait for the subscription to be confirmed so publishes after Subscribe
	// returns are not dropped
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					zap.S().Warn("fabric subscription closed")
					return
				}
				handler(strings.TrimPrefix(msg.Channel, fabricChannelPrefix), []byte(msg.Payload))
			}
		}
	}()
	return nil
}
