package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type LotsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewLotsPubSub(rdb *redis.Client) *LotsPubSub {
	return &LotsPubSub{
		rdb:     rdb,
		channel: ChannelLotsChanged(),
	}
}

type lotChangedMsg struct {
	Type   string `json:"type"`
	LotID  int64  `json:"lot_id"`
	TsUnix int64  `json:"ts_unix"`
}

// PublishLotChanged broadcasts that the lot's spot pool or shape changed.
// A nil publisher is a no-op.
func (p *LotsPubSub) PublishLotChanged(ctx context.Context, lotID int64) error {
	if p == nil {
		return nil
	}

	msg := lotChangedMsg{
		Type:   "lot_changed",
		LotID:  lotID,
		TsUnix: time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *LotsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, lotID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev lotChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.LotID != 0 {
				handler(ctx, ev.LotID)
			}
		}
	}
}
