// Package pubsub provides in-process broadcast channels for store
// synchronization. Handles on the same topic mirror the page-context
// broadcast primitive: publishing on a handle delivers to every other
// handle on that topic, never back to the publisher itself.
package pubsub

import "sync"

const defaultBufferSize = 64

// Channel is one endpoint on a broadcast topic. pkg/store publishes its
// serialized state through a Channel and applies whatever arrives on
// Messages. Implementations other than the in-process broker exist; the
// preview server bridges a Channel over a websocket.
type Channel interface {
	// Publish broadcasts data to the topic's other endpoints.
	// It never blocks and never delivers back to this endpoint.
	Publish(data []byte)

	// Messages returns the stream of payloads published by other
	// endpoints. The channel is closed when the endpoint closes.
	// Received slices must be treated as read-only.
	Messages() <-chan []byte

	// Close detaches the endpoint and closes its Messages channel.
	Close()
}

// Broker fans messages out between channel endpoints grouped by topic.
type Broker struct {
	mu         sync.RWMutex
	topics     map[string]map[*TopicChannel]struct{}
	done       chan struct{}
	bufferSize int
}

// NewBroker creates a broker with the default endpoint buffer size (64).
func NewBroker() *Broker {
	return NewBrokerWithBuffer(defaultBufferSize)
}

// NewBrokerWithBuffer creates a broker with a custom endpoint buffer size.
func NewBrokerWithBuffer(size int) *Broker {
	return &Broker{
		topics:     make(map[string]map[*TopicChannel]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Channel opens a new endpoint on topic. Endpoints opened on a closed
// broker are born closed.
func (b *Broker) Channel(topic string) *TopicChannel {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := &TopicChannel{
		broker: b,
		topic:  topic,
		ch:     make(chan []byte, b.bufferSize),
	}

	select {
	case <-b.done:
		close(ch.ch)
		ch.closed = true
		return ch
	default:
	}

	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*TopicChannel]struct{})
	}
	b.topics[topic][ch] = struct{}{}
	return ch
}

// Publish delivers data to every endpoint on topic. Unlike
// Channel.Publish there is no originating endpoint, so all endpoints
// receive it. Non-blocking: endpoints with full buffers miss the message.
func (b *Broker) Publish(topic string, data []byte) {
	b.publish(topic, data, nil)
}

func (b *Broker) publish(topic string, data []byte, origin *TopicChannel) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	// One copy shared by all receivers; publishers may reuse their slice.
	buf := make([]byte, len(data))
	copy(buf, data)

	for sub := range b.topics[topic] {
		if sub == origin {
			continue
		}
		select {
		case sub.ch <- buf:
		default:
			// Buffer full, drop rather than block the publisher.
		}
	}
}

func (b *Broker) detach(ch *TopicChannel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	subs := b.topics[ch.topic]
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(b.topics, ch.topic)
	}
	close(ch.ch)
}

// SubscriberCount returns the number of endpoints open on topic.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close shuts down the broker and every endpoint's Messages channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for _, subs := range b.topics {
		for sub := range subs {
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()
			close(sub.ch)
		}
	}
	b.topics = nil
}

// TopicChannel is the broker's Channel implementation.
type TopicChannel struct {
	broker *Broker
	topic  string
	ch     chan []byte

	mu     sync.Mutex
	closed bool
}

// Topic returns the topic this endpoint is bound to.
func (c *TopicChannel) Topic() string {
	return c.topic
}

// Publish broadcasts data to the topic's other endpoints.
func (c *TopicChannel) Publish(data []byte) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.broker.publish(c.topic, data, c)
}

// Messages returns the endpoint's receive stream.
func (c *TopicChannel) Messages() <-chan []byte {
	return c.ch
}

// Close detaches the endpoint from the broker.
func (c *TopicChannel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.broker.detach(c)
}
