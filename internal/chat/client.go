package chat

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ClientConfig — параметры websocket-соединения.
type ClientConfig struct {
	MaxMessageSize int64         // максимальный размер входящего кадра
	PingInterval   time.Duration // период PING
	PongTimeout    time.Duration // сколько ждём любой кадр от клиента
	SendBuffer     int           // длина очереди исходящих кадров
}

func (cfg ClientConfig) withDefaults() ClientConfig {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 1_000_000
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 25 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	return cfg
}

// HealthPayload — ответ на pong клиента.
type HealthPayload struct {
	Status string `json:"status"`
}

// Client представляет одно websocket-подключение.
type Client struct {
	hub       *Hub
	coord     *Coordinator
	conn      *websocket.Conn
	sessionID string
	authName  string // имя из JWT, пусто для анонимного подключения
	cfg       ClientConfig
	log       *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient связывает соединение с хабом и координатором.
func NewClient(hub *Hub, coord *Coordinator, conn *websocket.Conn, sessionID, authName string, cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Client{
		hub:       hub,
		coord:     coord,
		conn:      conn,
		sessionID: sessionID,
		authName:  authName,
		cfg:       cfg,
		log:       logger,
		send:      make(chan []byte, cfg.SendBuffer),
	}
}

// Serve регистрирует клиента, запускает писателя и читает сокет до разрыва.
func (c *Client) Serve() {
	if err := c.hub.Register(c); err != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		c.conn.Close()
		return
	}
	go c.WriteSocket()
	c.ReadSocket()
}

// ReadSocket читает входящие кадры и передаёт их координатору.
func (c *Client) ReadSocket() {
	defer func() {
		// Сначала уходим из хаба, чтобы не получать собственные прощальные рассылки
		c.hub.Unregister(c.sessionID)
		c.coord.Disconnect(c.sessionID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("ws.read", "session", c.sessionID, "err", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			c.coord.ReportError(c.sessionID, ErrInvalidEvent)
			continue
		}
		if err := c.dispatch(frame); err != nil {
			c.coord.ReportError(c.sessionID, err)
		}
	}
}

// WriteSocket отправляет кадры из очереди и поддерживает heartbeat (PING).
func (c *Client) WriteSocket() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Очередь закрыта хабом
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue кладёт кадр в очередь без блокировки. false означает, что очередь переполнена,
// клиент при этом закрывается.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		c.closed = true
		close(c.send)
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ==========================
// Входящие события
// ==========================

type messageIn struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

type reactionIn struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	Room      string `json:"room"`
}

type joinRoomIn struct {
	NewRoom  string `json:"newRoom"`
	OldRoom  string `json:"oldRoom"`
	Username string `json:"username"`
}

type typingIn struct {
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

type privateMessageIn struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Room string `json:"room"`
}

type fetchMessagesIn struct {
	Room string `json:"room"`
	Page int    `json:"page"`
}

func (c *Client) dispatch(frame Frame) error {
	switch frame.Event {
	case EventJoin:
		name, err := decodeJoinName(frame.Data)
		if err != nil {
			return err
		}
		if c.authName != "" {
			if name == "" {
				name = c.authName
			}
			if name != c.authName {
				return ErrUnauthenticated
			}
		}
		return c.coord.Join(c.sessionID, name)

	case EventMessage:
		var in messageIn
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return c.coord.SendMessage(c.sessionID, in.Room, in.Text)

	case EventReaction:
		var in reactionIn
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return c.coord.React(c.sessionID, in.MessageID, in.Reaction, in.Room)

	case EventJoinRoom:
		var in joinRoomIn
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return c.coord.SwitchRoom(c.sessionID, in.Username, in.NewRoom, in.OldRoom)

	case EventTyping:
		var in typingIn
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return c.coord.SetTyping(c.sessionID, in.Username, in.Typing)

	case EventPrivateMessage:
		var in privateMessageIn
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return c.coord.SendPrivateMessage(c.sessionID, in.To, in.Text, in.Room)

	case EventFetchMessages:
		var in fetchMessagesIn
		if len(frame.Data) > 0 {
			if err := decode(frame.Data, &in); err != nil {
				return err
			}
		}
		return c.coord.FetchMessages(c.sessionID, in.Room, in.Page)

	case EventPong:
		c.hub.SendToSession(c.sessionID, EventConnectionHealth, HealthPayload{Status: "healthy"})
		return nil

	default:
		return ErrInvalidEvent
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return ErrInvalidEvent
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ErrInvalidEvent
	}
	return nil
}

// decodeJoinName принимает и строку, и объект {"username": "..."}.
func decodeJoinName(data json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return strings.TrimSpace(name), nil
	}
	var obj struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", ErrInvalidEvent
	}
	return strings.TrimSpace(obj.Username), nil
}
