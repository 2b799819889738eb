package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/templatedir/templatedir-server/internal/id"
)

const (
	eventQueueSize    = 1000
	clientBufferSize  = 100
	heartbeatInterval = 30 * time.Second
)

// Subscription selects the events a connection receives.
type Subscription struct {
	// UserID is empty for anonymous connections, which only see
	// broadcast events.
	UserID string
	// ListingID narrows the stream to events about one listing.
	ListingID string
}

// wants reports whether e belongs on a stream with this subscription.
// Heartbeats go everywhere.
func (s Subscription) wants(e Event) bool {
	if e.Type == EventHeartbeat {
		return true
	}
	if e.UserID != "" && e.UserID != s.UserID {
		return false
	}
	return s.ListingID == "" || e.ListingID == s.ListingID
}

// Client is one open event stream.
type Client struct {
	Subscription

	ID          string
	ConnectedAt time.Time
	Events      chan Event
	Done        chan struct{}
}

// Manager fans emitted events out to connected clients.
type Manager struct {
	logger *slog.Logger
	queue  chan Event
	quit   chan struct{}
	once   sync.Once
	loop   sync.WaitGroup

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewManager creates a Manager. Nothing is delivered until Start runs.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:  logger,
		queue:   make(chan Event, eventQueueSize),
		quit:    make(chan struct{}),
		clients: make(map[string]*Client),
	}
}

// Start launches the delivery loop, which runs until ctx is canceled or
// Shutdown is called. The loop is registered before Start returns, so a
// Shutdown that follows always waits for it to flush the queue.
func (m *Manager) Start(ctx context.Context) {
	if m.stopped() {
		return
	}
	m.loop.Add(1)
	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	defer m.loop.Done()

	m.logger.Info("SSE manager starting")
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-m.queue:
			m.deliver(event)
		case <-ticker.C:
			m.deliver(NewHeartbeatEvent())
		case <-m.quit:
			m.drain()
			return
		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAll()
			return
		}
	}
}

// drain delivers whatever is still queued.
func (m *Manager) drain() {
	for {
		select {
		case event := <-m.queue:
			m.deliver(event)
		default:
			return
		}
	}
}

// Shutdown stops accepting events, lets the loop flush the queue and
// disconnects every client. It is safe to call more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	first := false
	m.once.Do(func() {
		first = true
		close(m.quit)
	})
	if !first {
		return nil
	}
	m.logger.Info("SSE manager shutdown initiated")

	flushed := make(chan struct{})
	go func() {
		m.loop.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
	case <-ctx.Done():
		m.logger.Warn("SSE drain timed out, queued events may be lost")
	}

	m.closeAll()
	m.logger.Info("SSE manager shutdown complete")
	return nil
}

func (m *Manager) stopped() bool {
	select {
	case <-m.quit:
		return true
	default:
		return false
	}
}

// Emit queues an event. It never blocks: events are dropped when the
// queue is full or the manager has shut down.
func (m *Manager) Emit(event Event) {
	if m.stopped() {
		return
	}
	select {
	case m.queue <- event:
	default:
		m.logger.Error("SSE queue full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
}

// deliver hands event to every subscribed client, skipping clients whose
// buffer is full.
func (m *Manager) deliver(event Event) {
	var sent, skipped, slow int

	m.mu.RLock()
	for _, c := range m.clients {
		if !c.wants(event) {
			skipped++
			continue
		}
		select {
		case c.Events <- event:
			sent++
		default:
			slow++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", c.ID),
				slog.String("event_type", string(event.Type)))
		}
	}
	m.mu.RUnlock()

	if event.Type == EventHeartbeat {
		return
	}
	m.logger.Debug("event delivered",
		slog.String("event_type", string(event.Type)),
		slog.String("listing_id", event.ListingID),
		slog.Group("stats",
			slog.Int("sent", sent),
			slog.Int("skipped", skipped),
			slog.Int("slow", slow)))
}

// Connect registers a stream for sub.
func (m *Manager) Connect(sub Subscription) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}
	c := &Client{
		Subscription: sub,
		ID:           clientID,
		ConnectedAt:  time.Now(),
		Events:       make(chan Event, clientBufferSize),
		Done:         make(chan struct{}),
	}

	m.mu.Lock()
	m.clients[c.ID] = c
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", c.ID),
		slog.String("user_id", sub.UserID),
		slog.String("listing_id", sub.ListingID),
		slog.Int("total_clients", total))
	return c, nil
}

// Disconnect removes a client. Unknown ids are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
	}
	total := len(m.clients)
	m.mu.Unlock()
	if !ok {
		return
	}

	c.close()
	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(c.ConnectedAt)),
		slog.Int("total_clients", total))
}

// ClientCount returns the number of open streams.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Watchers returns the number of streams narrowed to listingID.
func (m *Manager) Watchers(listingID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.clients {
		if c.ListingID == listingID {
			n++
		}
	}
	return n
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	if len(clients) > 0 {
		m.logger.Info("all SSE clients disconnected", slog.Int("count", len(clients)))
	}
}

// close is only reached once per client: callers remove the client
// from the map under the lock first.
func (c *Client) close() {
	close(c.Done)
	close(c.Events)
}
