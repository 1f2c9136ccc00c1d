package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"backend-tripline/internal/events"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix = "tripline:"
	channelSuffix = ":samples"
	sendBuffer    = 64
)

// Hub fans trip events out to websocket viewers. With redis configured every
// event goes through a per-trip channel so all API replicas deliver it;
// without redis delivery stays in-process.
type Hub struct {
	redis   *redis.Client
	log     *zap.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	pubsub *redis.PubSub
	done   chan struct{}
}

type Client struct {
	TripID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		redis:   redisClient,
		log:     log,
		clients: map[string]map[*Client]struct{}{},
		done:    make(chan struct{}),
	}

	if redisClient == nil {
		close(h.done)
		return h
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	h.pubsub = redisClient.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)
	if _, err := h.pubsub.Receive(ctx); err != nil {
		log.Warn("redis subscribe failed", zap.Error(err))
	}
	go h.subscribeRedis()
	return h
}

func (h *Hub) Register(tripID string) *Client {
	client := &Client{
		TripID: tripID,
		Send:   make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[tripID] == nil {
		h.clients[tripID] = map[*Client]struct{}{}
	}
	h.clients[tripID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tripClients, ok := h.clients[client.TripID]
	if !ok {
		return
	}
	if _, ok := tripClients[client]; !ok {
		return
	}
	delete(tripClients, client)
	if len(tripClients) == 0 {
		delete(h.clients, client.TripID)
	}
	close(client.Send)
}

// Viewers reports how many clients watch tripID on this replica.
func (h *Hub) Viewers(tripID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tripID])
}

// Publish implements events.Sink. A failed redis publish still reaches
// local viewers; the error is returned so the publisher can log it.
func (h *Hub) Publish(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if h.redis == nil {
		h.deliver(ev.TripID, payload)
		return nil
	}
	if err := h.redis.Publish(ctx, redisChannel(ev.TripID), payload).Err(); err != nil {
		h.deliver(ev.TripID, payload)
		return err
	}
	return nil
}

// Close stops the redis subscription. Registered clients are left to their
// connections.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	err := h.pubsub.Close()
	<-h.done
	return err
}

func (h *Hub) deliver(tripID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[tripID] {
		select {
		case client.Send <- payload:
		default:
			h.log.Debug("dropping event for slow viewer", zap.String("trip_id", tripID))
		}
	}
}

func (h *Hub) subscribeRedis() {
	defer close(h.done)
	for msg := range h.pubsub.Channel() {
		tripID := tripIDFromChannel(msg.Channel)
		if tripID == "" {
			continue
		}
		h.deliver(tripID, []byte(msg.Payload))
	}
}

func redisChannel(tripID string) string {
	return channelPrefix + tripID + channelSuffix
}

func tripIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
