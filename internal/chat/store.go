package chat

import "sync"

// DefaultHistoryCapacity — сколько сообщений хранит каждая комната.
const DefaultHistoryCapacity = 1000

// MessageStore — журнал сообщений по комнатам: только дописывание,
// старые записи отбрасываются сверх capacity.
type MessageStore struct {
	capacity int
	logs     map[string]*roomLog // заполняется в конструкторе и дальше не меняется
}

type roomLog struct {
	mu       sync.RWMutex
	messages []Message
}

// NewMessageStore создаёт журналы для перечисленных комнат.
func NewMessageStore(rooms []string, capacity int) *MessageStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	s := &MessageStore{
		capacity: capacity,
		logs:     make(map[string]*roomLog, len(rooms)),
	}
	for _, room := range rooms {
		if room == "" {
			continue
		}
		s.logs[room] = &roomLog{}
	}
	return s
}

// Append дописывает сообщение и обрезает журнал до capacity последних.
func (s *MessageStore) Append(room string, msg Message) error {
	log, ok := s.logs[room]
	if !ok {
		return ErrUnknownRoom
	}

	msg = msg.clone()
	log.mu.Lock()
	defer log.mu.Unlock()

	log.messages = append(log.messages, msg)
	if over := len(log.messages) - s.capacity; over > 0 {
		kept := make([]Message, s.capacity)
		copy(kept, log.messages[over:])
		log.messages = kept
	}
	return nil
}

// Page возвращает срез [index*size, index*size+size) от самых старых к новым.
func (s *MessageStore) Page(room string, index, size int) ([]Message, bool, error) {
	if index < 0 || size <= 0 {
		return nil, false, ErrInvalidPage
	}
	log, ok := s.logs[room]
	if !ok {
		return nil, false, ErrUnknownRoom
	}

	log.mu.RLock()
	defer log.mu.RUnlock()

	// index*size может переполнить int, поэтому границу проверяем делением.
	total := len(log.messages)
	if total == 0 || index > (total-1)/size {
		return []Message{}, false, nil
	}
	start := index * size
	end := total
	if total-start > size {
		end = start + size
	}

	out := make([]Message, 0, end-start)
	for _, m := range log.messages[start:end] {
		out = append(out, m.clone())
	}
	return out, total-start > size, nil
}

// AttachReaction добавляет реакцию name к сообщению. Повтор той же тройки
// (сообщение, символ, имя) ничего не меняет.
func (s *MessageStore) AttachReaction(room, messageID, symbol, name string) (Message, error) {
	log, ok := s.logs[room]
	if !ok {
		return Message{}, ErrMessageNotFound
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	for i := len(log.messages) - 1; i >= 0; i-- {
		msg := &log.messages[i]
		if msg.ID != messageID {
			continue
		}
		if msg.Reactions == nil {
			msg.Reactions = make(map[string][]string)
		}
		for _, existing := range msg.Reactions[symbol] {
			if existing == name {
				return msg.clone(), nil
			}
		}
		msg.Reactions[symbol] = append(msg.Reactions[symbol], name)
		return msg.clone(), nil
	}
	return Message{}, ErrMessageNotFound
}

// Get ищет сообщение по id.
func (s *MessageStore) Get(room, messageID string) (Message, error) {
	log, ok := s.logs[room]
	if !ok {
		return Message{}, ErrMessageNotFound
	}

	log.mu.RLock()
	defer log.mu.RUnlock()

	for i := len(log.messages) - 1; i >= 0; i-- {
		if log.messages[i].ID == messageID {
			return log.messages[i].clone(), nil
		}
	}
	return Message{}, ErrMessageNotFound
}

// Len возвращает число сообщений в журнале комнаты.
func (s *MessageStore) Len(room string) int {
	log, ok := s.logs[room]
	if !ok {
		return 0
	}
	log.mu.RLock()
	defer log.mu.RUnlock()
	return len(log.messages)
}
