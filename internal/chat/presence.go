package chat

import "sync"

// Presence хранит двустороннее соответствие sessionID <-> имя пользователя.
// Одно имя может принадлежать только одной живой сессии.
type Presence struct {
	mu        sync.RWMutex
	bySession map[string]string
	byName    map[string]string
	order     []string // имена в порядке регистрации
}

// NewPresence создаёт пустой справочник присутствия.
func NewPresence() *Presence {
	return &Presence{
		bySession: make(map[string]string),
		byName:    make(map[string]string),
	}
}

// Register привязывает имя к сессии.
func (p *Presence) Register(sessionID, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.bySession[sessionID]; ok {
		return ErrDuplicateSession
	}
	if owner, ok := p.byName[name]; ok && owner != sessionID {
		return ErrDuplicateDisplayName
	}

	p.bySession[sessionID] = name
	p.byName[name] = sessionID
	p.order = append(p.order, name)
	return nil
}

// Resolve возвращает имя пользователя сессии.
func (p *Presence) Resolve(sessionID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	name, ok := p.bySession[sessionID]
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

// ReverseResolve возвращает сессию, которой принадлежит имя.
func (p *Presence) ReverseResolve(name string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sessionID, ok := p.byName[name]
	if !ok {
		return "", ErrNotFound
	}
	return sessionID, nil
}

// Remove удаляет обе стороны соответствия. Повторный вызов ничего не делает.
func (p *Presence) Remove(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name, ok := p.bySession[sessionID]
	if !ok {
		return
	}
	delete(p.bySession, sessionID)
	if p.byName[name] == sessionID {
		delete(p.byName, name)
	}
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// AllDisplayNames — снимок имён всех подключённых пользователей.
func (p *Presence) AllDisplayNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string{}, p.order...)
}

// Count возвращает число подключённых пользователей.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.bySession)
}
