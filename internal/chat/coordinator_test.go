package chat_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-portfolio/room-chat/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Тестовый шлюз
// ==========================

type delivery struct {
	kind    string // room, session, all, except
	target  string
	event   string
	payload any
}

type recordingGateway struct {
	mu   sync.Mutex
	log  []delivery
	subs map[string]map[string]bool // комната -> сессии
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{subs: make(map[string]map[string]bool)}
}

func (g *recordingGateway) record(d delivery) {
	g.mu.Lock()
	g.log = append(g.log, d)
	g.mu.Unlock()
}

func (g *recordingGateway) SendToRoom(room, event string, payload any) {
	g.record(delivery{"room", room, event, payload})
}

func (g *recordingGateway) SendToSession(sessionID, event string, payload any) {
	g.record(delivery{"session", sessionID, event, payload})
}

func (g *recordingGateway) SendToAll(event string, payload any) {
	g.record(delivery{"all", "", event, payload})
}

func (g *recordingGateway) SendToAllExcept(sessionID, event string, payload any) {
	g.record(delivery{"except", sessionID, event, payload})
}

func (g *recordingGateway) Subscribe(sessionID, room string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.subs[room] == nil {
		g.subs[room] = make(map[string]bool)
	}
	g.subs[room][sessionID] = true
}

func (g *recordingGateway) Unsubscribe(sessionID, room string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.subs[room], sessionID)
}

func (g *recordingGateway) subscribed(sessionID, room string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subs[room][sessionID]
}

func (g *recordingGateway) reset() {
	g.mu.Lock()
	g.log = nil
	g.mu.Unlock()
}

func (g *recordingGateway) find(kind, target, event string) []delivery {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []delivery
	for _, d := range g.log {
		if d.kind == kind && d.target == target && d.event == event {
			out = append(out, d)
		}
	}
	return out
}

func (g *recordingGateway) all() []delivery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]delivery(nil), g.log...)
}

// ==========================
// Вспомогательные функции
// ==========================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestCoordinator(t *testing.T) (*chat.Coordinator, *recordingGateway, *fakeClock) {
	t.Helper()
	gw := newRecordingGateway()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	c, err := chat.NewCoordinator(gw, slog.New(slog.NewTextHandler(io.Discard, nil)), chat.Options{
		Rooms:       []string{"general", "random", "tech"},
		DefaultRoom: "general",
		Now:         clock.Now,
		NewID:       sequentialIDs(),
	})
	require.NoError(t, err)
	return c, gw, clock
}

func lastMessage(t *testing.T, c *chat.Coordinator, room string) chat.Message {
	t.Helper()
	page, err := c.ReadPage(room, 0, chat.DefaultHistoryCapacity)
	require.NoError(t, err)
	require.NotEmpty(t, page.Messages)
	return page.Messages[len(page.Messages)-1]
}

// ==========================
// Конструктор
// ==========================

func TestNewCoordinator_Validation(t *testing.T) {
	_, err := chat.NewCoordinator(nil, nil, chat.Options{})
	assert.Error(t, err)

	_, err = chat.NewCoordinator(newRecordingGateway(), nil, chat.Options{
		Rooms:       []string{"general"},
		DefaultRoom: "lobby",
	})
	assert.ErrorIs(t, err, chat.ErrUnknownRoom)

	c, err := chat.NewCoordinator(newRecordingGateway(), nil, chat.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"general", "random", "tech"}, c.Rooms())
	assert.Equal(t, "general", c.DefaultRoom())
	assert.Equal(t, []chat.RoomInfo{
		{ID: "general", Name: "General"},
		{ID: "random", Name: "Random"},
		{ID: "tech", Name: "Tech"},
	}, c.RoomList())
}

// ==========================
// Join
// ==========================

func TestJoin_RegistersAndAnnounces(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)

	require.NoError(t, c.Join("s1", "  alice "))

	assert.Equal(t, []string{"alice"}, c.OnlineUsers())
	assert.Equal(t, []string{"alice"}, c.Members("general"))
	assert.True(t, gw.subscribed("s1", "general"))

	joined := gw.find("all", "", chat.EventUserJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "alice has joined", joined[0].payload)

	list := gw.find("all", "", chat.EventUserList)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"alice"}, list[0].payload)

	roomList := gw.find("session", "s1", chat.EventRoomList)
	require.Len(t, roomList, 1)
	assert.Equal(t, chat.RoomListPayload{
		Rooms:       []string{"general", "random", "tech"},
		Current:     "general",
		UsersInRoom: []string{"alice"},
	}, roomList[0].payload)

	room, ok := c.CurrentRoom("s1")
	assert.True(t, ok)
	assert.Equal(t, "general", room)
}

func TestJoin_InvalidName(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)

	assert.ErrorIs(t, c.Join("s1", "   "), chat.ErrInvalidName)
	assert.Empty(t, c.OnlineUsers())
	assert.Empty(t, gw.all())
}

func TestJoin_DuplicateDisplayName(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	err := c.Join("s2", "alice")

	assert.ErrorIs(t, err, chat.ErrDuplicateDisplayName)
	assert.Equal(t, chat.KindDuplicateDisplayName, chat.KindOf(err))
	assert.Equal(t, []string{"alice"}, c.OnlineUsers())
	assert.Empty(t, gw.all())
	_, ok := c.CurrentRoom("s2")
	assert.False(t, ok)
}

func TestJoin_SameSessionTwice(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))

	assert.ErrorIs(t, c.Join("s1", "bob"), chat.ErrDuplicateSession)
	assert.Equal(t, []string{"alice"}, c.OnlineUsers())
}

// ==========================
// SendMessage
// ==========================

func TestSendMessage_StoresAndBroadcasts(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	require.NoError(t, c.SendMessage("s1", "general", "  hello  "))

	stored := lastMessage(t, c, "general")
	assert.Equal(t, "hello", stored.Text)
	assert.Equal(t, "alice", stored.Author())
	assert.Equal(t, "general", stored.Room)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", stored.Timestamp)
	assert.False(t, stored.System)

	sent := gw.find("room", "general", chat.EventMessage)
	require.Len(t, sent, 1)
	msg := sent[0].payload.(chat.Message)
	assert.Equal(t, stored.ID, msg.ID)
}

func TestSendMessage_EmptyRoomMeansDefault(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	require.NoError(t, c.SendMessage("s1", "", "hi"))
	assert.Len(t, gw.find("room", "general", chat.EventMessage), 1)
}

func TestSendMessage_Errors(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)

	assert.ErrorIs(t, c.SendMessage("ghost", "general", "hi"), chat.ErrUnauthenticated)

	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	assert.ErrorIs(t, c.SendMessage("s1", "general", "   "), chat.ErrInvalidMessage)
	assert.ErrorIs(t, c.SendMessage("s1", "music", "hi"), chat.ErrUnknownRoom)
	assert.Empty(t, gw.find("room", "general", chat.EventMessage))
	assert.Empty(t, c.Members("music"))
}

func TestSendMessage_RateLimited(t *testing.T) {
	c, gw, clock := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.SendMessage("s1", "general", fmt.Sprintf("msg %d", i)))
		clock.Advance(10 * time.Millisecond)
	}
	err := c.SendMessage("s1", "general", "one too many")
	assert.ErrorIs(t, err, chat.ErrRateLimited)
	assert.Equal(t, chat.KindRateLimited, chat.KindOf(err))
	assert.Len(t, gw.find("room", "general", chat.EventMessage), 5)

	clock.Advance(time.Second)
	assert.NoError(t, c.SendMessage("s1", "general", "after window"))
}

// ==========================
// React
// ==========================

func TestReact_PersistsAndBroadcasts(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	require.NoError(t, c.Join("s2", "bob"))
	require.NoError(t, c.SendMessage("s1", "general", "hi"))
	msg := lastMessage(t, c, "general")
	gw.reset()

	require.NoError(t, c.React("s2", msg.ID, "👍", "general"))
	require.NoError(t, c.React("s2", msg.ID, "👍", "general"))

	stored, err := c.Message("general", msg.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"👍": {"bob"}}, stored.Reactions)

	sent := gw.find("room", "general", chat.EventMessageReaction)
	require.Len(t, sent, 2)
	assert.Equal(t, chat.ReactionPayload{MessageID: msg.ID, Reaction: "👍", Username: "bob", Room: "general"}, sent[0].payload)
}

func TestReact_Errors(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)

	assert.ErrorIs(t, c.React("ghost", "id", "👍", "general"), chat.ErrUnauthenticated)

	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	assert.ErrorIs(t, c.React("s1", "", "👍", "general"), chat.ErrInvalidReaction)
	assert.ErrorIs(t, c.React("s1", "id", "", "general"), chat.ErrInvalidReaction)
	assert.ErrorIs(t, c.React("s1", "missing", "👍", "general"), chat.ErrMessageNotFound)
	assert.Equal(t, chat.KindNotFound, chat.KindOf(chat.ErrMessageNotFound))
	assert.Empty(t, gw.all())
}

// ==========================
// SwitchRoom
// ==========================

func TestSwitchRoom_Broadcasts(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	require.NoError(t, c.Join("s2", "bob"))
	gw.reset()

	require.NoError(t, c.SwitchRoom("s1", "alice", "tech", "general"))

	left := gw.find("room", "general", chat.EventMessage)
	require.Len(t, left, 1)
	leftMsg := left[0].payload.(chat.Message)
	assert.Equal(t, "alice left", leftMsg.Text)
	assert.True(t, leftMsg.System)
	assert.Nil(t, leftMsg.Username)

	joined := gw.find("room", "tech", chat.EventMessage)
	require.Len(t, joined, 1)
	assert.Equal(t, "alice joined", joined[0].payload.(chat.Message).Text)

	updates := gw.find("room", "tech", chat.EventRoomUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, chat.RoomUpdatePayload{Room: "tech", Users: []string{"alice"}}, updates[0].payload)

	assert.Len(t, gw.all(), 3)

	assert.Equal(t, []string{"bob"}, c.Members("general"))
	assert.Equal(t, []string{"alice"}, c.Members("tech"))
	assert.False(t, gw.subscribed("s1", "general"))
	assert.True(t, gw.subscribed("s1", "tech"))

	room, _ := c.CurrentRoom("s1")
	assert.Equal(t, "tech", room)

	// Системные сообщения попадают в историю
	assert.Equal(t, "alice left", lastMessage(t, c, "general").Text)
	assert.Equal(t, "alice joined", lastMessage(t, c, "tech").Text)
}

func TestSwitchRoom_NoOps(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	require.NoError(t, c.SwitchRoom("s1", "alice", "general", "general"))
	require.NoError(t, c.SwitchRoom("s1", "alice", "music", "general"))

	assert.Empty(t, gw.all())
	assert.Equal(t, []string{"alice"}, c.Members("general"))
}

func TestSwitchRoom_UsesTrackedRoom(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	require.NoError(t, c.SwitchRoom("s1", "alice", "tech", "general"))

	// Клиент прислал неверный oldRoom: выходим всё равно из tech
	require.NoError(t, c.SwitchRoom("s1", "", "random", "general"))

	assert.Empty(t, c.Members("general"))
	assert.Empty(t, c.Members("tech"))
	assert.Equal(t, []string{"alice"}, c.Members("random"))
}

func TestSwitchRoom_Unauthenticated(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	require.NoError(t, c.Join("s2", "bob"))

	assert.ErrorIs(t, c.SwitchRoom("ghost", "alice", "tech", "general"), chat.ErrUnauthenticated)
	// bob не может двигать alice
	assert.ErrorIs(t, c.SwitchRoom("s2", "alice", "tech", "general"), chat.ErrUnauthenticated)
	assert.Equal(t, []string{"alice", "bob"}, c.Members("general"))
}

func TestSwitchRoom_ConcurrentWithDisconnect(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	const users = 20
	for i := 0; i < users; i++ {
		require.NoError(t, c.Join(fmt.Sprintf("s%d", i), fmt.Sprintf("user%d", i)))
	}

	rooms := []string{"general", "random", "tech"}
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		sid := fmt.Sprintf("s%d", i)
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = c.SwitchRoom(sid, "", rooms[(i+j)%len(rooms)], "")
			}
		}(i)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				c.Disconnect(sid)
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, room := range rooms {
		total += len(c.Members(room))
	}
	assert.Equal(t, users/2, total)
	assert.Len(t, c.OnlineUsers(), users/2)
}

// ==========================
// Typing
// ==========================

func TestSetTyping(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	require.NoError(t, c.SetTyping("s1", "alice", true))

	sent := gw.find("except", "s1", chat.EventTyping)
	require.Len(t, sent, 1)
	assert.Equal(t, chat.TypingPayload{Username: "alice", Typing: true}, sent[0].payload)

	assert.ErrorIs(t, c.SetTyping("s1", "bob", true), chat.ErrUnauthenticated)
	assert.ErrorIs(t, c.SetTyping("ghost", "", false), chat.ErrUnauthenticated)
}

// ==========================
// Private messages
// ==========================

func TestSendPrivateMessage(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	require.NoError(t, c.Join("s2", "bob"))
	gw.reset()

	require.NoError(t, c.SendPrivateMessage("s1", "bob", "psst", "alice-bob"))

	want := chat.PrivateMessagePayload{
		Room:      "alice-bob",
		From:      "alice",
		Text:      "psst",
		Timestamp: "2024-05-01T10:00:00.000Z",
	}
	toBob := gw.find("session", "s2", chat.EventPrivateMessage)
	require.Len(t, toBob, 1)
	assert.Equal(t, want, toBob[0].payload)

	echo := gw.find("session", "s1", chat.EventPrivateMessage)
	require.Len(t, echo, 1)
	assert.Equal(t, want, echo[0].payload)

	assert.Len(t, gw.all(), 2)
}

func TestSendPrivateMessage_ToSelfDeliveredOnce(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	require.NoError(t, c.SendPrivateMessage("s1", "alice", "note", "alice-alice"))
	assert.Len(t, gw.find("session", "s1", chat.EventPrivateMessage), 1)
}

func TestSendPrivateMessage_Errors(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	assert.ErrorIs(t, c.SendPrivateMessage("ghost", "bob", "hi", "k"), chat.ErrUnauthenticated)

	require.NoError(t, c.Join("s1", "alice"))
	gw.reset()

	assert.ErrorIs(t, c.SendPrivateMessage("s1", "", "hi", "k"), chat.ErrInvalidMessage)
	assert.ErrorIs(t, c.SendPrivateMessage("s1", "bob", " ", "k"), chat.ErrInvalidMessage)
	assert.ErrorIs(t, c.SendPrivateMessage("s1", "bob", "hi", ""), chat.ErrInvalidMessage)

	err := c.SendPrivateMessage("s1", "bob", "hi", "alice-bob")
	assert.ErrorIs(t, err, chat.ErrRecipientOffline)
	assert.Equal(t, chat.KindNotFound, chat.KindOf(err))
	assert.Empty(t, gw.all())
}

// ==========================
// Disconnect
// ==========================

func TestDisconnect_WithoutJoinIsSilent(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)

	c.Disconnect("ghost")
	assert.Empty(t, gw.all())
}

func TestDisconnect_CleansUp(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	require.NoError(t, c.Join("s2", "bob"))
	require.NoError(t, c.SwitchRoom("s1", "alice", "tech", "general"))
	gw.reset()

	c.Disconnect("s1")

	updates := gw.find("room", "tech", chat.EventRoomUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, chat.RoomUpdatePayload{Room: "tech", Users: []string{}}, updates[0].payload)

	left := gw.find("all", "", chat.EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "alice left", left[0].payload)

	list := gw.find("all", "", chat.EventUserList)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"bob"}, list[0].payload)

	assert.Empty(t, c.Members("tech"))
	assert.Equal(t, []string{"bob"}, c.OnlineUsers())
	assert.False(t, gw.subscribed("s1", "tech"))
	_, ok := c.CurrentRoom("s1")
	assert.False(t, ok)

	// Повторный вызов ничего не рассылает
	gw.reset()
	c.Disconnect("s1")
	assert.Empty(t, gw.all())

	// Имя снова свободно
	assert.NoError(t, c.Join("s3", "alice"))
}

func TestJoin_AfterDisconnectFails(t *testing.T) {
	c, gw, clock := newTestCoordinator(t)

	c.Disconnect("s1")
	assert.ErrorIs(t, c.Join("s1", "alice"), chat.ErrSessionClosed)
	assert.Empty(t, c.OnlineUsers())
	assert.Empty(t, c.Members("general"))
	assert.Empty(t, gw.all())

	require.NoError(t, c.Join("s2", "alice"))
	c.Disconnect("s2")
	assert.ErrorIs(t, c.Join("s2", "alice"), chat.ErrSessionClosed)

	// Старые записи вычищаются следующим Disconnect
	clock.Advance(2 * time.Minute)
	c.Disconnect("s3")
	assert.NoError(t, c.Join("s1", "alice"))
}

func TestJoin_ConcurrentWithDisconnect(t *testing.T) {
	for i := 0; i < 200; i++ {
		c, _, _ := newTestCoordinator(t)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Join("s1", "alice")
		}()
		go func() {
			defer wg.Done()
			c.Disconnect("s1")
		}()
		wg.Wait()

		require.NoError(t, c.Join("s2", "alice"), "run %d", i)
		assert.Equal(t, []string{"alice"}, c.OnlineUsers())
		assert.Equal(t, []string{"alice"}, c.Members("general"))
	}
}

// ==========================
// История
// ==========================

func TestReadPage(t *testing.T) {
	c, _, clock := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	for i := 0; i < 25; i++ {
		require.NoError(t, c.SendMessage("s1", "random", fmt.Sprintf("msg %d", i)))
		clock.Advance(time.Second)
	}

	page, err := c.ReadPage("random", 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Messages, chat.DefaultPageSize)
	assert.True(t, page.HasMore)
	assert.Equal(t, "msg 0", page.Messages[0].Text)

	page, err = c.ReadPage("random", 1, 0)
	require.NoError(t, err)
	assert.Len(t, page.Messages, 5)
	assert.False(t, page.HasMore)
	assert.Equal(t, 1, page.Page)

	_, err = c.ReadPage("random", -1, 0)
	assert.ErrorIs(t, err, chat.ErrInvalidPage)
	_, err = c.ReadPage("music", 0, 0)
	assert.ErrorIs(t, err, chat.ErrUnknownRoom)
}

func TestFetchMessages(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s1", "alice"))
	require.NoError(t, c.SendMessage("s1", "general", "hi"))
	gw.reset()

	require.NoError(t, c.FetchMessages("s1", "", 0))

	sent := gw.find("session", "s1", chat.EventMessageHistory)
	require.Len(t, sent, 1)
	page := sent[0].payload.(chat.Page)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "hi", page.Messages[0].Text)
	assert.False(t, page.HasMore)

	assert.ErrorIs(t, c.FetchMessages("s1", "music", 0), chat.ErrUnknownRoom)
}

// ==========================
// Ошибки
// ==========================

func TestReportError(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)

	c.ReportError("s1", chat.ErrRateLimited)
	c.ReportError("s1", errors.New("db exploded"))
	c.ReportError("s1", nil)

	sent := gw.find("session", "s1", chat.EventError)
	require.Len(t, sent, 2)
	assert.Equal(t, "too many messages, slow down", sent[0].payload)
	assert.Equal(t, "internal error", sent[1].payload)
	assert.Len(t, gw.all(), 2)
}

// ==========================
// Сквозной сценарий
// ==========================

func TestChatScenario_ReactionVisibleInHistory(t *testing.T) {
	c, gw, _ := newTestCoordinator(t)
	require.NoError(t, c.Join("s-alice", "alice"))
	require.NoError(t, c.Join("s-bob", "bob"))

	require.NoError(t, c.SendMessage("s-alice", "general", "hi"))
	msg := lastMessage(t, c, "general")
	require.NoError(t, c.React("s-bob", msg.ID, "👍", "general"))

	page, err := c.ReadPage("general", 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "alice", page.Messages[0].Author())
	assert.Equal(t, "hi", page.Messages[0].Text)
	assert.Equal(t, map[string][]string{"👍": {"bob"}}, page.Messages[0].Reactions)

	assert.Len(t, gw.find("room", "general", chat.EventMessage), 1)
	assert.Len(t, gw.find("room", "general", chat.EventMessageReaction), 1)
}
