package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/go-portfolio/room-chat/internal/metrics"
)

// ErrHubClosed возвращается при регистрации клиента после остановки хаба.
var ErrHubClosed = errors.New("hub closed")

// Frame — конверт каждого события на проводе: {"event": "...", "data": ...}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub — реализация Gateway поверх живых websocket-клиентов.
// Хаб ничего не знает о правилах чата: он только держит подписки и доставляет кадры.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client            // sessionID -> клиент
	rooms   map[string]map[string]*Client // комната -> sessionID -> клиент
	closed  bool
}

// NewHub создаёт пустой хаб.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log:     logger,
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register добавляет клиента в хаб.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.clients[c.sessionID] = c
	metrics.Connections.Set(float64(len(h.clients)))
	return nil
}

// Unregister убирает клиента отовсюду и закрывает его очередь.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	c, ok := h.clients[sessionID]
	if ok {
		delete(h.clients, sessionID)
		for room, subs := range h.rooms {
			delete(subs, sessionID)
			if len(subs) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	metrics.Connections.Set(float64(len(h.clients)))
	h.mu.Unlock()

	if ok {
		c.closeSend()
	}
}

// Subscribe подписывает сессию на рассылки комнаты.
func (h *Hub) Subscribe(sessionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[sessionID]
	if !ok {
		return
	}
	subs := h.rooms[room]
	if subs == nil {
		subs = make(map[string]*Client)
		h.rooms[room] = subs
	}
	subs[sessionID] = c
}

// Unsubscribe снимает подписку сессии на комнату.
func (h *Hub) Unsubscribe(sessionID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[room]; ok {
		delete(subs, sessionID)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}

// SendToRoom доставляет событие всем подписчикам комнаты.
func (h *Hub) SendToRoom(room, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[room] {
		h.deliver(c, data)
	}
}

// SendToSession доставляет событие одной сессии.
func (h *Hub) SendToSession(sessionID, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[sessionID]; ok {
		h.deliver(c, data)
	}
}

// SendToAll доставляет событие всем подключённым клиентам.
func (h *Hub) SendToAll(event string, payload any) {
	h.SendToAllExcept("", event, payload)
}

// SendToAllExcept доставляет событие всем, кроме sessionID.
func (h *Hub) SendToAllExcept(sessionID, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == sessionID {
			continue
		}
		h.deliver(c, data)
	}
}

// Close закрывает очереди всех клиентов: их писатели отправят close-кадр
// и завершатся. Новые регистрации после Close отклоняются.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.closeSend()
	}
	h.log.Info("hub.closed", "clients", len(clients))
}

// encode сериализует кадр один раз на всю рассылку.
func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(outFrame{Event: event, Data: payload})
	if err != nil {
		h.log.Error("hub.encode", "event", event, "err", err)
		return nil, false
	}
	return data, true
}

// deliver не блокируется: переполненная очередь означает медленного клиента,
// его соединение закрывается, остальные получают кадр как обычно.
func (h *Hub) deliver(c *Client, data []byte) {
	if !c.enqueue(data) {
		h.log.Warn("hub.slow_client", "session", c.sessionID)
	}
}
