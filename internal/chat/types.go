package chat

import "time"

// Имена событий, которыми ядро обменивается с транспортом.
const (
	EventJoin           = "join"
	EventMessage        = "message"
	EventReaction       = "reaction"
	EventJoinRoom       = "joinRoom"
	EventTyping         = "typing"
	EventPrivateMessage = "privateMessage"
	EventFetchMessages  = "fetchMessages"
	EventPong           = "pong"

	EventUserJoined       = "userJoined"
	EventUserLeft         = "userLeft"
	EventUserList         = "userList"
	EventRoomList         = "roomList"
	EventRoomUpdate       = "roomUpdate"
	EventMessageReaction  = "messageReaction"
	EventMessageHistory   = "messageHistory"
	EventConnectionHealth = "connectionHealth"
	EventError            = "error"
)

// timestampLayout — ISO-8601 с миллисекундами, как у Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Message — одно сообщение комнаты. Username == nil у системных сообщений.
type Message struct {
	ID        string              `json:"id"`
	Room      string              `json:"room"`
	Username  *string             `json:"username"`
	Text      string              `json:"text"`
	Timestamp string              `json:"timestamp"`
	Reactions map[string][]string `json:"reactions"`
	System    bool                `json:"system,omitempty"`
}

// clone возвращает глубокую копию: реакции не должны утекать наружу по ссылке.
func (m Message) clone() Message {
	out := m
	if m.Username != nil {
		name := *m.Username
		out.Username = &name
	}
	out.Reactions = make(map[string][]string, len(m.Reactions))
	for symbol, users := range m.Reactions {
		out.Reactions[symbol] = append([]string(nil), users...)
	}
	return out
}

// Author возвращает имя автора или пустую строку для системного сообщения.
func (m Message) Author() string {
	if m.Username == nil {
		return ""
	}
	return *m.Username
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// RoomListPayload отправляется только что подключившейся сессии.
type RoomListPayload struct {
	Rooms       []string `json:"rooms"`
	Current     string   `json:"current"`
	UsersInRoom []string `json:"usersInRoom"`
}

// RoomUpdatePayload — актуальный состав комнаты.
type RoomUpdatePayload struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// ReactionPayload рассылается участникам комнаты после сохранения реакции.
type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	Username  string `json:"username"`
	Room      string `json:"room"`
}

// TypingPayload — индикатор набора текста.
type TypingPayload struct {
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

// PrivateMessagePayload — личное сообщение; Room содержит ключ диалога.
type PrivateMessagePayload struct {
	Room      string `json:"room"`
	From      string `json:"from"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Page — страница истории комнаты.
type Page struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"hasMore"`
	Page     int       `json:"page"`
}

// RoomInfo описывает комнату для HTTP-списка.
type RoomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Gateway доставляет события живым соединениям. Ядро не ждёт подтверждений:
// медленный получатель не должен задерживать остальных.
type Gateway interface {
	SendToRoom(room, event string, payload any)
	SendToSession(sessionID, event string, payload any)
	SendToAll(event string, payload any)
	SendToAllExcept(sessionID, event string, payload any)

	// Subscribe и Unsubscribe управляют подпиской соединения на рассылки комнаты.
	Subscribe(sessionID, room string)
	Unsubscribe(sessionID, room string)
}
