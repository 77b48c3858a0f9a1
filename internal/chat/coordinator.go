package chat

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-portfolio/room-chat/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPageSize — размер страницы истории, если клиент его не указал.
const DefaultPageSize = 20

// closedRetention — сколько помнится завершённая сессия.
const closedRetention = time.Minute

// Options задаёт параметры координатора. Нулевые значения заменяются
// значениями по умолчанию.
type Options struct {
	Rooms           []string
	DefaultRoom     string
	HistoryCapacity int
	PageSize        int
	RateMax         int
	RateWindow      time.Duration

	// Now и NewID подменяются в тестах.
	Now   func() time.Time
	NewID func() string
}

// Coordinator — единственный владелец состояния чата: присутствие, комнаты,
// история и лимиты. Все входящие события проходят через его методы.
type Coordinator struct {
	gw  Gateway
	log *slog.Logger

	presence *Presence
	rooms    *RoomRegistry
	store    *MessageStore
	limiter  *RateLimiter

	defaultRoom string
	pageSize    int
	now         func() time.Time
	newID       func() string

	mu       sync.Mutex
	sessions map[string]*session
	closed   map[string]time.Time // sessionID -> время Disconnect
	swept    time.Time
}

// session — состояние одного подключения после join.
type session struct {
	mu   sync.Mutex
	name string
	room string
	gone bool
}

// NewCoordinator собирает координатор поверх шлюза рассылки.
func NewCoordinator(gw Gateway, logger *slog.Logger, opts Options) (*Coordinator, error) {
	if gw == nil {
		return nil, fmt.Errorf("chat: gateway is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Rooms) == 0 {
		opts.Rooms = []string{"general", "random", "tech"}
	}
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = opts.Rooms[0]
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	rooms := NewRoomRegistry(opts.Rooms)
	if !rooms.Has(opts.DefaultRoom) {
		return nil, fmt.Errorf("chat: default room %q is not registered: %w", opts.DefaultRoom, ErrUnknownRoom)
	}

	return &Coordinator{
		gw:          gw,
		log:         logger,
		presence:    NewPresence(),
		rooms:       rooms,
		store:       NewMessageStore(rooms.Rooms(), opts.HistoryCapacity),
		limiter:     NewRateLimiter(opts.RateMax, opts.RateWindow),
		defaultRoom: opts.DefaultRoom,
		pageSize:    opts.PageSize,
		now:         opts.Now,
		newID:       opts.NewID,
		sessions:    make(map[string]*session),
		closed:      make(map[string]time.Time),
	}, nil
}

// Join регистрирует пользователя и сажает его в комнату по умолчанию.
func (c *Coordinator) Join(sessionID, displayName string) error {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return ErrInvalidName
	}
	if c.isClosed(sessionID) {
		return ErrSessionClosed
	}
	if err := c.presence.Register(sessionID, name); err != nil {
		return err
	}
	if err := c.rooms.AddMember(c.defaultRoom, name); err != nil {
		c.presence.Remove(sessionID)
		return err
	}

	// Disconnect мог пройти, пока имя регистрировалось.
	c.mu.Lock()
	if _, ok := c.closed[sessionID]; ok {
		c.mu.Unlock()
		c.rooms.RemoveMember(c.defaultRoom, name)
		c.presence.Remove(sessionID)
		return ErrSessionClosed
	}
	c.sessions[sessionID] = &session{name: name, room: c.defaultRoom}
	c.mu.Unlock()

	c.gw.Subscribe(sessionID, c.defaultRoom)
	metrics.OnlineUsers.Set(float64(c.presence.Count()))

	c.gw.SendToAll(EventUserJoined, name+" has joined")
	c.gw.SendToAll(EventUserList, c.presence.AllDisplayNames())
	c.gw.SendToSession(sessionID, EventRoomList, RoomListPayload{
		Rooms:       c.rooms.Rooms(),
		Current:     c.defaultRoom,
		UsersInRoom: c.rooms.MembersOf(c.defaultRoom),
	})

	c.log.Info("chat.join", "session", sessionID, "user", name)
	return nil
}

// SendMessage принимает сообщение пользователя в комнату.
// Порядок: лимит -> проверка -> сохранение -> рассылка.
func (c *Coordinator) SendMessage(sessionID, room, text string) error {
	name, err := c.presence.Resolve(sessionID)
	if err != nil {
		return ErrUnauthenticated
	}
	if !c.limiter.Attempt(sessionID, c.now()) {
		metrics.RateLimitedTotal.Inc()
		return ErrRateLimited
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrInvalidMessage
	}
	if room == "" {
		room = c.defaultRoom
	}
	if !c.rooms.Has(room) {
		return ErrUnknownRoom
	}

	msg := Message{
		ID:        c.newID(),
		Room:      room,
		Username:  &name,
		Text:      text,
		Timestamp: formatTimestamp(c.now()),
		Reactions: map[string][]string{},
	}
	if err := c.store.Append(room, msg); err != nil {
		return err
	}
	metrics.MessagesTotal.WithLabelValues(room).Inc()

	c.gw.SendToRoom(room, EventMessage, msg)
	return nil
}

// React сохраняет реакцию на сообщение и рассылает её участникам комнаты.
func (c *Coordinator) React(sessionID, messageID, symbol, room string) error {
	name, err := c.presence.Resolve(sessionID)
	if err != nil {
		return ErrUnauthenticated
	}
	if messageID == "" || symbol == "" || room == "" {
		return ErrInvalidReaction
	}
	if _, err := c.store.AttachReaction(room, messageID, symbol, name); err != nil {
		return err
	}
	metrics.ReactionsTotal.WithLabelValues(room).Inc()

	c.gw.SendToRoom(room, EventMessageReaction, ReactionPayload{
		MessageID: messageID,
		Reaction:  symbol,
		Username:  name,
		Room:      room,
	})
	return nil
}

// SwitchRoom переводит сессию в newRoom. Исходной комнатой считается та,
// которую координатор помнит за сессией; oldRoom клиента только сверяется.
func (c *Coordinator) SwitchRoom(sessionID, displayName, newRoom, oldRoom string) error {
	s, err := c.claim(sessionID, displayName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone {
		return ErrUnauthenticated
	}

	from := s.room
	if newRoom == from || !c.rooms.Has(newRoom) {
		return nil
	}
	if oldRoom != "" && oldRoom != from {
		c.log.Debug("chat.switch.old_room_mismatch", "session", sessionID, "claimed", oldRoom, "tracked", from)
	}

	if err := c.rooms.Transition(s.name, from, newRoom); err != nil {
		return err
	}
	s.room = newRoom

	if from != "" {
		c.gw.Unsubscribe(sessionID, from)
		c.broadcastSystem(from, s.name+" left")
	}
	c.gw.Subscribe(sessionID, newRoom)
	c.broadcastSystem(newRoom, s.name+" joined")
	c.gw.SendToRoom(newRoom, EventRoomUpdate, RoomUpdatePayload{
		Room:  newRoom,
		Users: c.rooms.MembersOf(newRoom),
	})

	c.log.Debug("chat.switch", "session", sessionID, "user", s.name, "from", from, "to", newRoom)
	return nil
}

// SetTyping рассылает индикатор набора всем, кроме отправителя.
// TODO: ограничить рассылку текущей комнатой, когда клиент начнёт передавать room в typing.
func (c *Coordinator) SetTyping(sessionID, displayName string, isTyping bool) error {
	s, err := c.claim(sessionID, displayName)
	if err != nil {
		return err
	}
	c.gw.SendToAllExcept(sessionID, EventTyping, TypingPayload{Username: s.name, Typing: isTyping})
	return nil
}

// SendPrivateMessage доставляет сообщение получателю и эхо отправителю.
// conversationKey координатор не проверяет, а только передаёт дальше.
func (c *Coordinator) SendPrivateMessage(fromSessionID, toDisplayName, text, conversationKey string) error {
	from, err := c.presence.Resolve(fromSessionID)
	if err != nil {
		return ErrUnauthenticated
	}
	if toDisplayName == "" || strings.TrimSpace(text) == "" || conversationKey == "" {
		return ErrInvalidMessage
	}
	toSessionID, err := c.presence.ReverseResolve(toDisplayName)
	if err != nil {
		return ErrRecipientOffline
	}

	pm := PrivateMessagePayload{
		Room:      conversationKey,
		From:      from,
		Text:      text,
		Timestamp: formatTimestamp(c.now()),
	}
	c.gw.SendToSession(toSessionID, EventPrivateMessage, pm)
	if toSessionID != fromSessionID {
		c.gw.SendToSession(fromSessionID, EventPrivateMessage, pm)
	}
	metrics.PrivateMessagesTotal.Inc()
	return nil
}

// Disconnect завершает сессию. Повторный вызов и вызов без join ничего не рассылают.
// После Disconnect тот же sessionID больше не может войти.
func (c *Coordinator) Disconnect(sessionID string) {
	now := c.now()
	c.mu.Lock()
	s := c.sessions[sessionID]
	delete(c.sessions, sessionID)
	if now.Sub(c.swept) > closedRetention {
		for id, at := range c.closed {
			if now.Sub(at) > closedRetention {
				delete(c.closed, id)
			}
		}
		c.swept = now
	}
	c.closed[sessionID] = now
	c.mu.Unlock()

	c.limiter.Release(sessionID)
	if s == nil {
		return
	}

	s.mu.Lock()
	s.gone = true
	name := s.name
	s.mu.Unlock()

	for _, room := range c.rooms.RemoveEverywhere(name) {
		c.gw.Unsubscribe(sessionID, room)
		c.gw.SendToRoom(room, EventRoomUpdate, RoomUpdatePayload{
			Room:  room,
			Users: c.rooms.MembersOf(room),
		})
	}
	c.presence.Remove(sessionID)
	metrics.OnlineUsers.Set(float64(c.presence.Count()))

	c.gw.SendToAll(EventUserLeft, name+" left")
	c.gw.SendToAll(EventUserList, c.presence.AllDisplayNames())

	c.log.Info("chat.disconnect", "session", sessionID, "user", name)
}

func (c *Coordinator) isClosed(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.closed[sessionID]
	return ok
}

// ReadPage читает страницу истории комнаты. pageSize <= 0 означает размер по умолчанию.
func (c *Coordinator) ReadPage(room string, pageIndex, pageSize int) (Page, error) {
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	messages, hasMore, err := c.store.Page(room, pageIndex, pageSize)
	if err != nil {
		return Page{}, err
	}
	return Page{Messages: messages, HasMore: hasMore, Page: pageIndex}, nil
}

// FetchMessages отправляет сессии страницу истории через сокет.
func (c *Coordinator) FetchMessages(sessionID, room string, pageIndex int) error {
	if room == "" {
		room = c.defaultRoom
	}
	page, err := c.ReadPage(room, pageIndex, c.pageSize)
	if err != nil {
		return err
	}
	c.gw.SendToSession(sessionID, EventMessageHistory, page)
	return nil
}

// ReportError сообщает об ошибке только сессии-источнику.
func (c *Coordinator) ReportError(sessionID string, err error) {
	if err == nil {
		return
	}
	kind := KindOf(err)
	metrics.ErrorsTotal.WithLabelValues(string(kind)).Inc()
	c.log.Warn("chat.error", "session", sessionID, "kind", kind, "err", err)

	msg := err.Error()
	if kind == KindInternal {
		msg = "internal error"
	}
	c.gw.SendToSession(sessionID, EventError, msg)
}

// Rooms возвращает зарегистрированные комнаты.
func (c *Coordinator) Rooms() []string { return c.rooms.Rooms() }

// RoomList возвращает комнаты с отображаемыми названиями: "tech" -> "Tech".
func (c *Coordinator) RoomList() []RoomInfo {
	title := cases.Title(language.Und)
	rooms := c.rooms.Rooms()
	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomInfo{ID: room, Name: title.String(room)})
	}
	return out
}

// DefaultRoom — комната, в которую попадают после join.
func (c *Coordinator) DefaultRoom() string { return c.defaultRoom }

// OnlineUsers — снимок имён подключённых пользователей.
func (c *Coordinator) OnlineUsers() []string { return c.presence.AllDisplayNames() }

// Members — снимок состава комнаты.
func (c *Coordinator) Members(room string) []string { return c.rooms.MembersOf(room) }

// Message возвращает сохранённое сообщение комнаты.
func (c *Coordinator) Message(room, messageID string) (Message, error) {
	return c.store.Get(room, messageID)
}

// CurrentRoom возвращает активную комнату сессии.
func (c *Coordinator) CurrentRoom(sessionID string) (string, bool) {
	s := c.lookup(sessionID)
	if s == nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, !s.gone
}

func (c *Coordinator) lookup(sessionID string) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[sessionID]
}

// claim находит сессию и сверяет заявленное клиентом имя с настоящим.
func (c *Coordinator) claim(sessionID, displayName string) (*session, error) {
	s := c.lookup(sessionID)
	if s == nil {
		return nil, ErrUnauthenticated
	}
	if claimed := strings.TrimSpace(displayName); claimed != "" && claimed != s.name {
		return nil, ErrUnauthenticated
	}
	return s, nil
}

// broadcastSystem сохраняет системное сообщение в журнал комнаты и рассылает его.
func (c *Coordinator) broadcastSystem(room, text string) {
	msg := Message{
		ID:        c.newID(),
		Room:      room,
		Text:      text,
		Timestamp: formatTimestamp(c.now()),
		Reactions: map[string][]string{},
		System:    true,
	}
	if err := c.store.Append(room, msg); err != nil {
		c.log.Error("chat.system_message", "room", room, "err", err)
		return
	}
	c.gw.SendToRoom(room, EventMessage, msg)
}
