package chat

import "sync"

// RoomRegistry — фиксированный набор комнат и их участники.
// Комнаты задаются при старте и больше не меняются.
type RoomRegistry struct {
	mu      sync.RWMutex
	names   []string
	members map[string][]string // комната -> имена в порядке входа
}

// NewRoomRegistry регистрирует комнаты. Дубликаты и пустые имена пропускаются.
func NewRoomRegistry(rooms []string) *RoomRegistry {
	r := &RoomRegistry{members: make(map[string][]string, len(rooms))}
	for _, name := range rooms {
		if name == "" {
			continue
		}
		if _, ok := r.members[name]; ok {
			continue
		}
		r.names = append(r.names, name)
		r.members[name] = []string{}
	}
	return r
}

// Rooms возвращает имена комнат в порядке регистрации.
func (r *RoomRegistry) Rooms() []string {
	return append([]string(nil), r.names...)
}

// Has сообщает, зарегистрирована ли комната.
func (r *RoomRegistry) Has(room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[room]
	return ok
}

// AddMember добавляет пользователя в комнату. Повторное добавление ничего не меняет.
func (r *RoomRegistry) AddMember(room, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[room]; !ok {
		return ErrUnknownRoom
	}
	r.addLocked(room, name)
	return nil
}

// RemoveMember убирает пользователя из комнаты, если он там есть.
func (r *RoomRegistry) RemoveMember(room, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(room, name)
}

// MembersOf — снимок состава комнаты. Для неизвестной комнаты пустой.
func (r *RoomRegistry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.members[room]...)
}

// Transition переводит пользователя из from в to целиком или не трогает ничего.
func (r *RoomRegistry) Transition(name, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[to]; !ok {
		return ErrUnknownRoom
	}
	if from != "" && from != to {
		r.removeLocked(from, name)
	}
	r.addLocked(to, name)
	return nil
}

// RemoveEverywhere убирает пользователя из всех комнат и возвращает те,
// где он состоял.
func (r *RoomRegistry) RemoveEverywhere(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []string
	for _, room := range r.names {
		if r.removeLocked(room, name) {
			affected = append(affected, room)
		}
	}
	return affected
}

func (r *RoomRegistry) addLocked(room, name string) {
	for _, m := range r.members[room] {
		if m == name {
			return
		}
	}
	r.members[room] = append(r.members[room], name)
}

func (r *RoomRegistry) removeLocked(room, name string) bool {
	list, ok := r.members[room]
	if !ok {
		return false
	}
	for i, m := range list {
		if m == name {
			r.members[room] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}
