package presence

import (
	"sync"
)

// Conn — живое соединение участника. Реализуется ws-обёрткой.
type Conn interface {
	Send(frame []byte) error
	Close() error
}

type entry struct {
	conn  Conn
	rooms map[string]struct{} // открытые диалоги
}

// Registry хранит живые соединения и подписки участников.
// Состояние не переживает рестарт процесса: клиенты обязаны
// переподключиться и заново выполнить join.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry // participantID -> state
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register устанавливает соединение участника. Предыдущее соединение
// вытесняется (последняя регистрация выигрывает), набор подписок
// всегда сбрасывается: новая сессия начинается без открытых диалогов.
func (r *Registry) Register(id string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[id] = &entry{
		conn:  conn,
		rooms: make(map[string]struct{}),
	}
}

// Unregister снимает участника, только если conn всё ещё его текущее
// соединение. Закрытие вытесненного соединения не должно сносить
// запись его преемника.
func (r *Registry) Unregister(id string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok && e.conn == conn {
		delete(r.entries, id)
	}
}

func (r *Registry) Lookup(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Join добавляет диалог в подписки участника. Без активного
// соединения — no-op: control-кадры после дисконнекта игнорируются.
func (r *Registry) Join(id, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.rooms[room] = struct{}{}
	}
}

func (r *Registry) Leave(id, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		delete(e.rooms, room)
	}
}

func (r *Registry) IsSubscribed(id, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	_, ok = e.rooms[room]
	return ok
}

// Presence — связное чтение «соединение + подписан ли» под одной
// блокировкой, чтобы submit не видел полуобновлённого состояния.
func (r *Registry) Presence(id, room string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	_, subscribed := e.rooms[room]
	return e.conn, subscribed
}
