package database

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// RabbitRepo definition rabbit repo
// 每個 process 共用一個連線，Publish 由 client 自行保證並發安全
type RabbitRepo interface {
	PublishJSON(queue string, v interface{}) error
	Consume(queue string, prefetch int) (<-chan amqp.Delivery, error)
	Close()
}

// RabbitClient keeps one connection and channel per process and
// re-dials once when a publish hits a broken channel.
type RabbitClient struct {
	mu      sync.Mutex
	setting Connection
	conn    *amqp.Connection
	channel *amqp.Channel

	declared map[string]bool
}

// NewRabbitClient create a RabbitClient, declaring the given durable queues
func NewRabbitClient(d Connection, queues ...string) (*RabbitClient, error) {
	conn, err := ConnectRabbitMQWithRetry(d)
	if err != nil {
		return nil, err
	}

	ch, err := GetRabbitMQChannelWithRetry(conn, d.RetryCount, d.RetryInterval)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := &RabbitClient{
		setting:  d,
		conn:     conn,
		channel:  ch,
		declared: make(map[string]bool),
	}

	for _, q := range queues {
		if err := c.declareQueue(q); err != nil {
			c.Close()
			return nil, fmt.Errorf("declare queue [%s]: %w", q, err)
		}
	}

	return c, nil
}

// ConnectRabbitMQWithRetry 嘗試連線到 RabbitMQ，並使用指數回退進行重試。
func ConnectRabbitMQWithRetry(d Connection) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= d.RetryCount; attempt++ {
		conn, err = amqp.Dial(d.ConnectStr)
		if err == nil {
			log.Printf("RabbitMQ[%s] 連線成功 (嘗試 %d 次)", d.ConnectStr, attempt)
			return conn, nil
		}

		log.Printf("RabbitMQ[%s] 連線失敗 (嘗試 %d/%d): %v", d.ConnectStr, attempt, d.RetryCount, err)
		time.Sleep(d.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("無法連線 RabbitMQ[%s]，經過 %d 次嘗試: %v", d.ConnectStr, d.RetryCount, err)
}

// GetRabbitMQChannelWithRetry 使用已有的 RabbitMQ 連線嘗試取得 Channel
func GetRabbitMQChannelWithRetry(conn *amqp.Connection, maxRetries int, baseDelay time.Duration) (*amqp.Channel, error) {
	var ch *amqp.Channel
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		ch, err = conn.Channel()
		if err == nil {
			log.Printf("RabbitMQ Channel 建立成功 (嘗試 %d 次)", attempt)
			return ch, nil
		}

		log.Printf("建立 RabbitMQ Channel 失敗 (嘗試 %d/%d): %v", attempt, maxRetries, err)
		time.Sleep(baseDelay * time.Second)
	}

	return nil, fmt.Errorf("無法取得 RabbitMQ Channel，經過 %d 次嘗試: %v", maxRetries, err)
}

// declareQueue declares a durable queue; caller must hold no lock requirement
// beyond the amqp channel's own (declare happens during setup and reconnect).
func (c *RabbitClient) declareQueue(name string) error {
	if c.declared[name] {
		return nil
	}
	if _, err := c.channel.QueueDeclare(
		name,  // queue name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // arguments
	); err != nil {
		return err
	}
	c.declared[name] = true
	return nil
}

// PublishJSON marshal v and publish it persistently to the named durable queue.
// Safe for concurrent use; on a broken channel it re-dials once and retries.
func (c *RabbitClient) PublishJSON(queue string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message for [%s]: %w", queue, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.publish(queue, body); err != nil {
		if rerr := c.reconnect(); rerr != nil {
			return fmt.Errorf("publish to [%s]: %v (reconnect failed: %w)", queue, err, rerr)
		}
		if err := c.publish(queue, body); err != nil {
			return fmt.Errorf("publish to [%s] after reconnect: %w", queue, err)
		}
	}
	return nil
}

func (c *RabbitClient) publish(queue string, body []byte) error {
	if err := c.declareQueue(queue); err != nil {
		return err
	}
	return c.channel.Publish(
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// reconnect 重建連線與 channel，caller 需持有 mu
func (c *RabbitClient) reconnect() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}

	conn, err := ConnectRabbitMQWithRetry(c.setting)
	if err != nil {
		return err
	}
	ch, err := GetRabbitMQChannelWithRetry(conn, c.setting.RetryCount, c.setting.RetryInterval)
	if err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	c.channel = ch
	c.declared = make(map[string]bool)
	return nil
}

// Consume start consuming the named queue with manual ack and the given
// prefetch bound. Delivery 由 caller 負責 Ack/Nack。
func (c *RabbitClient) Consume(queue string, prefetch int) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.declareQueue(queue); err != nil {
		return nil, err
	}
	if prefetch > 0 {
		if err := c.channel.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("set qos on [%s]: %w", queue, err)
		}
	}

	tag := fmt.Sprintf("%s-%s", queue, uuid.NewString()[:8])
	return c.channel.Consume(
		queue, // queue
		tag,   // consumer tag
		false, // autoAck 為 false，使用手動確認
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // arguments
	)
}

// Close close channel and connection
func (c *RabbitClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
