// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package pubsub

import (
	"sync"

	"github.com/tacticalmesh/rrc/internal/config"
)

func makeInMemoryPubSub(_ *config.Config) (PubSub, error) {
	return &inMemoryPubSub{
		subs: make(map[string]map[*inMemorySubscription]struct{}),
	}, nil
}

// inMemoryPubSub fans a published message out to every subscriber of its
// topic, matching the shape of the Redis transport (each subscriber gets
// its own channel) without leaving the network.
type inMemoryPubSub struct {
	mu   sync.Mutex
	subs map[string]map[*inMemorySubscription]struct{}
}

func (ps *inMemoryPubSub) Publish(topic string, message []byte) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for sub := range ps.subs[topic] {
		select {
		case sub.ch <- message:
		default:
			// Slow subscriber: drop rather than block the publisher.
		}
	}
	return nil
}

func (ps *inMemoryPubSub) Subscribe(topic string) Subscription {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	sub := &inMemorySubscription{
		parent: ps,
		topic:  topic,
		ch:     make(chan []byte, 16),
	}
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[*inMemorySubscription]struct{})
	}
	ps.subs[topic][sub] = struct{}{}
	return sub
}

func (ps *inMemoryPubSub) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, topicSubs := range ps.subs {
		for sub := range topicSubs {
			close(sub.ch)
		}
	}
	ps.subs = make(map[string]map[*inMemorySubscription]struct{})
	return nil
}

type inMemorySubscription struct {
	parent *inMemoryPubSub
	topic  string
	ch     chan []byte
}

func (s *inMemorySubscription) Close() error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if _, ok := s.parent.subs[s.topic][s]; !ok {
		return nil // already closed
	}
	delete(s.parent.subs[s.topic], s)
	close(s.ch)
	return nil
}

func (s *inMemorySubscription) Channel() <-chan []byte {
	return s.ch
}
