package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	publishTimeout = 10 * time.Second
	queueSize      = 64
)

// Publisher is satisfied by Producer and by test doubles.
type Publisher interface {
	PublishObjectAsync(key []byte, obj interface{})
}

type message struct {
	key   []byte
	value []byte
}

// Producer publishes JSON events to a single kafka topic. Async publishes go
// through one worker, so they reach kafka in the order they were made.
type Producer struct {
	topic  string
	client *kgo.Client
	logger weather.Logger
	send   func(ctx context.Context, key, value []byte) error

	mu     sync.Mutex
	closed bool
	queue  chan message
	wg     sync.WaitGroup
}

// NewProducer creates a kafka client for topic. Brokers are contacted lazily
// on the first publish.
func NewProducer(brokers []string, topic string, logger weather.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}

	p := newProducer(client, topic, logger, nil)
	logger.Infof("kafka producer initialized for topic %s", topic)
	return p, nil
}

// newProducer starts the publish worker. A nil send publishes through client.
func newProducer(client *kgo.Client, topic string, logger weather.Logger, send func(ctx context.Context, key, value []byte) error) *Producer {
	p := &Producer{
		topic:  topic,
		client: client,
		logger: logger,
		send:   send,
		queue:  make(chan message, queueSize),
	}
	if p.send == nil {
		p.send = p.Publish
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Producer) run() {
	defer p.wg.Done()
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.send(ctx, msg.key, msg.value); err != nil {
			p.logger.Errorf("kafka publish to %s failed: %v", p.topic, err)
		}
		cancel()
	}
}

// Close stops accepting events, waits for queued ones to be published and
// closes the kafka client.
func (p *Producer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	if p.client != nil {
		p.client.Close()
	}
}

func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	msg := &kgo.Record{
		Topic: p.topic,
		Key:   key,
		Value: value,
	}

	results := p.client.ProduceSync(ctx, msg)
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// PublishObjectAsync marshals obj and queues it for publishing. Failures are
// logged. Events published after Close are dropped.
func (p *Producer) PublishObjectAsync(key []byte, obj interface{}) {
	value, err := json.Marshal(obj)
	if err != nil {
		p.logger.Errorf("failed to marshal event for kafka: %v", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warnf("kafka producer closed; dropping event %s", key)
		return
	}
	p.queue <- message{key: key, value: value}
}
