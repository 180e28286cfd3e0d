package websockets

import (
	"encoding/json"
	"sync"

	"intake/config"
	"intake/internal/events"
	"intake/internal/logger"

	"github.com/gofiber/websocket/v2"
)

const clientBuffer = 32

type client struct {
	send chan []byte
}

// Manager relays admin-channel events to every connected dashboard.
type Manager struct {
	mu          sync.RWMutex
	clients     map[*client]struct{}
	eventBus    *events.EventBus
	unsubscribe func()
	done        chan struct{}
	log         logger.Logger
}

func New(eventBus *events.EventBus, config config.Config) (*Manager, error) {
	log := logger.New("websockets")
	if eventBus == nil {
		return nil, log.Function("New").ErrMsg("event bus is nil")
	}

	feed, unsubscribe := eventBus.Subscribe(events.AdminChannel)
	m := &Manager{
		clients:     make(map[*client]struct{}),
		eventBus:    eventBus,
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
		log:         log,
	}

	go m.run(feed)
	log.Function("New").Debug("Websocket manager started", "environment", config.Environment)

	return m, nil
}

func (m *Manager) run(feed <-chan events.Event) {
	defer close(m.done)
	for event := range feed {
		m.broadcast(event)
	}
}

func (m *Manager) broadcast(event events.Event) {
	log := m.log.Function("broadcast")

	payload, err := json.Marshal(event)
	if err != nil {
		log.Er("failed to marshal event", err, "type", event.Type)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for c := range m.clients {
		select {
		case c.send <- payload:
		default:
			log.Warn("Dropping event for slow websocket client", "type", event.Type)
		}
	}
}

func (m *Manager) register() *client {
	c := &client{send: make(chan []byte, clientBuffer)}

	m.mu.Lock()
	m.clients[c] = struct{}{}
	m.mu.Unlock()

	return c
}

func (m *Manager) unregister(c *client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[c]; ok {
		delete(m.clients, c)
		close(c.send)
	}
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// HandleConnection serves one upgraded connection until the client goes
// away. Incoming messages are ignored. It returns only after the writer has
// stopped, since the connection is recycled once the handler returns.
func (m *Manager) HandleConnection(conn *websocket.Conn) {
	log := m.log.Function("HandleConnection")

	c := m.register()
	log.Info("Admin feed client connected", "clients", m.ClientCount())

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go m.write(conn, c, stop, writerDone)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug("Admin feed client disconnected", "error", err)
			break
		}
	}

	close(stop)
	m.unregister(c)
	<-writerDone
}

func (m *Manager) write(conn *websocket.Conn, c *client, stop <-chan struct{}, done chan<- struct{}) {
	log := m.log.Function("write")
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case payload, ok := <-c.send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				_ = conn.Close()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("Write to websocket client failed", "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}

func (m *Manager) Close() {
	m.unsubscribe()
	<-m.done

	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.clients {
		delete(m.clients, c)
		close(c.send)
	}
}
