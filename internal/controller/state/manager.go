package state

import (
	"sync"
	"time"
)

// Manager управляет состояниями пользователей
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // chatID -> UserData
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт менеджер. Брошенный диалог забывается через ttl
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(chatID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.live(chatID); ok {
		return userData.State
	}
	return StateNone
}

// Start начинает диалог с черновиком записи
func (sm *Manager) Start(chatID int64, state UserState, draft Draft) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	// заодно выбрасываем брошенные диалоги
	for id := range sm.states {
		if _, ok := sm.live(id); !ok {
			delete(sm.states, id)
		}
	}
	sm.states[chatID] = &UserData{State: state, Draft: draft, UpdatedAt: sm.now()}
}

// Advance переводит диалог в следующее состояние с обновлённым черновиком
func (sm *Manager) Advance(chatID int64, state UserState, draft Draft) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	userData, ok := sm.live(chatID)
	if !ok {
		return false
	}
	userData.State = state
	userData.Draft = draft
	userData.UpdatedAt = sm.now()
	return true
}

// GetDraft черновик текущего диалога
func (sm *Manager) GetDraft(chatID int64) (Draft, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.live(chatID); ok {
		return userData.Draft, true
	}
	return Draft{}, false
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, chatID)
}

// live запись без просроченных диалогов. Вызывается под блокировкой
func (sm *Manager) live(chatID int64) (*UserData, bool) {
	userData, ok := sm.states[chatID]
	if !ok {
		return nil, false
	}
	if sm.ttl > 0 && sm.now().Sub(userData.UpdatedAt) > sm.ttl {
		return nil, false
	}
	return userData, true
}
