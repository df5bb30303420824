package events

import (
	"context"
	"sync"
)

type Message struct {
	Topic string
	Key   string
	Event any
}

// Memory keeps published events in order. It backs tests and local runs.
type Memory struct {
	mu       sync.Mutex
	messages []Message
}

func (m *Memory) Publish(_ context.Context, topic, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{Topic: topic, Key: key, Event: event})
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Types lists the event types published to topic.
func (m *Memory) Types(topic string) []string {
	var out []string
	for _, msg := range m.Messages() {
		if msg.Topic != topic {
			continue
		}
		if ev, ok := msg.Event.(Event); ok {
			out = append(out, ev.Type)
		}
	}
	return out
}
