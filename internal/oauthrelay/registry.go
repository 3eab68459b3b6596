// Package oauthrelay принимает результат OAuth-попапа провайдера и передает
// типизированное сообщение окну-открывателю.
package oauthrelay

import (
	"sync"

	"github.com/google/uuid"
)

// MessageType — дискриминатор сообщения об успешной авторизации у провайдера.
const MessageType = "PROVIDER_AUTH_SUCCESS"

// Message — типизированное сообщение с идентификатором аккаунта у провайдера.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// opener — зарегистрированное окно-открыватель. Сообщение доставляется не
// более одного раза; запись живет до Release, чтобы открыватель успел забрать
// результат даже если попап вернулся раньше.
type opener struct {
	ch        chan Message
	delivered bool
}

// Registry сопоставляет открытые попапы их окнам-открывателям по ключу state.
type Registry struct {
	mu      sync.Mutex
	openers map[string]*opener
}

// NewRegistry создает пустой реестр.
func NewRegistry() *Registry {
	return &Registry{openers: make(map[string]*opener)}
}

// Register регистрирует окно-открыватель перед запуском попапа. Возвращает
// state для ссылки попапа и канал, в который придет сообщение.
func (r *Registry) Register() (string, <-chan Message) {
	state := uuid.NewString()
	o := &opener{ch: make(chan Message, 1)}
	r.mu.Lock()
	r.openers[state] = o
	r.mu.Unlock()
	return state, o.ch
}

// Await возвращает канал зарегистрированного открывателя. Второе значение
// false означает, что по этому state никто не зарегистрирован.
func (r *Registry) Await(state string) (<-chan Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.openers[state]
	if !ok {
		return nil, false
	}
	return o.ch, true
}

// Relay доставляет сообщение открывателю. Возвращает false, если открыватель
// по этому state не зарегистрирован или уже получил сообщение.
func (r *Registry) Relay(state string, msg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.openers[state]
	if !ok || o.delivered {
		return false
	}
	o.delivered = true
	o.ch <- msg
	close(o.ch)
	return true
}

// Release снимает регистрацию: открыватель забрал результат или перестал ждать.
func (r *Registry) Release(state string) {
	r.mu.Lock()
	if o, ok := r.openers[state]; ok {
		delete(r.openers, state)
		if !o.delivered {
			close(o.ch)
		}
	}
	r.mu.Unlock()
}
