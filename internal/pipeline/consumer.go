package pipeline

import (
	"context"
	"encoding/json"

	"video_pipeline_service/pkg/database"
	"video_pipeline_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Handler processes one raw queue message and reports how it went.
type Handler func(ctx context.Context, body []byte) Result

// DeadMessage wraps a rejected payload for the dead queue.
type DeadMessage struct {
	Queue   string          `json:"queue"`
	VideoID uint            `json:"video_id"`
	Reason  string          `json:"reason"`
	Body    json.RawMessage `json:"body"`
}

// Consumer 定義一個消息消費者，將所有必要的依賴注入進來
type Consumer struct {
	bus      database.RabbitRepo
	queue    string
	handler  Handler
	prefetch int
}

// NewConsumer 建構 Consumer 實例
func NewConsumer(bus database.RabbitRepo, queue string, prefetch int, handler Handler) *Consumer {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Consumer{
		bus:      bus,
		queue:    queue,
		handler:  handler,
		prefetch: prefetch,
	}
}

// Start consume messages until ctx is done. Each delivery is handled in
// its own goroutine so one long encode does not block the others; the
// prefetch bound caps in-flight work.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.bus.Consume(c.queue, c.prefetch)
	if err != nil {
		return err
	}

	logger.Log.Info("Consumer started, waiting for messages",
		zap.String("queue", c.queue))

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Warn("consume channel closed",
					zap.String("queue", c.queue))
				return nil
			}
			go c.dispatch(ctx, d)
		case <-ctx.Done():
			logger.Log.Info("Consumer stopping", zap.String("queue", c.queue))
			return nil
		}
	}
}

// dispatch run the handler and map its result to an ack decision.
// The message leaves the queue only after full processing (at-least-once).
func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	res := c.handler(ctx, d.Body)

	switch res.Code {
	case Success, Partial:
		if len(res.FailedPresets) > 0 {
			logger.Log.Warn("job completed with failed subset",
				zap.String("queue", c.queue),
				zap.Uint("video_id", res.VideoID),
				zap.Strings("failed", res.FailedPresets))
		}
		c.ack(d, res)

	case BadMessage:
		logger.Log.Error("dropping malformed message",
			zap.String("queue", c.queue),
			zap.Error(res.Err))
		c.ack(d, res)

	case HardFailure:
		logger.Log.Error("job failed hard, routing to dead queue",
			zap.String("queue", c.queue),
			zap.Uint("video_id", res.VideoID),
			zap.Error(res.Err))
		c.deadLetter(d, res)
		c.ack(d, res)

	case TransientFailure:
		logger.Log.Warn("transient failure, requeueing",
			zap.String("queue", c.queue),
			zap.Uint("video_id", res.VideoID),
			zap.Error(res.Err))
		if err := d.Nack(false, true); err != nil {
			logger.Log.Errorf("nack message failed:", err,
				zap.String("queue", c.queue))
		}
	}
}

func (c *Consumer) ack(d amqp.Delivery, res Result) {
	if err := d.Ack(false); err != nil {
		logger.Log.Errorf("ack message failed:", err,
			zap.String("queue", c.queue),
			zap.Uint("video_id", res.VideoID))
	}
}

func (c *Consumer) deadLetter(d amqp.Delivery, res Result) {
	reason := ""
	if res.Err != nil {
		reason = res.Err.Error()
	}
	dead := DeadMessage{
		Queue:   c.queue,
		VideoID: res.VideoID,
		Reason:  reason,
		Body:    json.RawMessage(d.Body),
	}
	if err := c.bus.PublishJSON(c.queue+".dead", dead); err != nil {
		logger.Log.Errorf("publish to dead queue failed:", err,
			zap.String("queue", c.queue),
			zap.Uint("video_id", res.VideoID))
	}
}
