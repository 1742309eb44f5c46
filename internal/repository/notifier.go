// internal/repository/notifier.go
package repository

import "sync"

// Notifier is a topic-keyed change signal behind the reactive read queries.
// Write paths publish the topics they touched; watchers re-query and re-emit
// a fresh snapshot on every signal. Signals are coalesced: a subscriber that
// is still processing one notification sees at most one more.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string][]chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string][]chan struct{})}
}

// Subscribe registers interest in a topic. The returned cancel func must be
// called to release the subscription.
func (n *Notifier) Subscribe(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	n.subs[topic] = append(n.subs[topic], ch)
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		subs := n.subs[topic]
		for i, c := range subs {
			if c == ch {
				n.subs[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// Publish signals every subscriber of the topic without blocking; a
// subscriber with a pending signal is skipped (the snapshot it will read
// already covers this write).
func (n *Notifier) Publish(topics ...string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, topic := range topics {
		for _, ch := range n.subs[topic] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Topic names published by the repositories.
const (
	TopicCourses       = "courses"
	TopicChatSessions  = "chat_sessions"
	TopicProgress      = "progress"
	TopicLearningStats = "learning_stats"
)

// TopicSessionMessages scopes message-change signals to one session.
func TopicSessionMessages(sessionID string) string {
	return "chat_messages:" + sessionID
}
