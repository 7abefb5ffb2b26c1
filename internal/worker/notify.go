package worker

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// MessageFetchIntercepted is the only message type sent to clients
const MessageFetchIntercepted = "FETCH_INTERCEPTED"

// Source tells where an intercepted response came from
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)

// Message is pushed to every connected client when a request is served
type Message struct {
	Type           string       `json:"type"`
	URL            string       `json:"url"`
	ResponseStatus int          `json:"responseStatus"`
	ResponseData   ResponseData `json:"responseData"`
}

type ResponseData struct {
	From Source `json:"from"`
	URL  string `json:"url"`
}

func newMessage(url string, status int, from Source) Message {
	return Message{
		Type:           MessageFetchIntercepted,
		URL:            url,
		ResponseStatus: status,
		ResponseData:   ResponseData{From: from, URL: url},
	}
}

const subscriberBuffer = 16

// Hub fans messages out to subscribers. Publishing never blocks: a
// subscriber that does not keep up loses messages.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Message]struct{}
	closed bool
	logger logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		subs:   make(map[chan Message]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new client. The returned function unsubscribes it
// and may be called more than once.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Message, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *Hub) Publish(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.logger.Debugf("Dropping %s message for slow client: %s", msg.Type, msg.URL)
		}
	}
}

// Subscribers returns the number of connected clients
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
