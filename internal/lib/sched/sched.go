// Package sched реализует отложенные задачи с владельцем.
//
// Каждый компонент, которому нужны таймеры (гард, отложенный рефреш после
// мутаций биллинга), создает собственный Scheduler и закрывает его при
// освобождении. Закрытие отменяет все невыполненные задачи, поэтому задача
// не может сработать после того, как владелец перестал существовать.
package sched

import (
	"sync"
	"time"
)

// Scheduler владеет набором отложенных задач.
type Scheduler struct {
	mu     sync.Mutex
	closed bool
	tasks  map[*Task]struct{}
}

// Task — одна отложенная задача. Отменяется индивидуально или вместе со
// Scheduler при его закрытии.
type Task struct {
	owner *Scheduler
	timer *time.Timer
	fired bool
}

// New создает пустой Scheduler.
func New() *Scheduler {
	return &Scheduler{tasks: make(map[*Task]struct{})}
}

// After планирует вызов fn через d. Возвращает задачу, которую можно отменить.
// После Close новые задачи не планируются, fn не вызывается.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &Task{}
	}
	t := &Task{owner: s}
	t.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		t.fired = true
		delete(s.tasks, t)
		s.mu.Unlock()
		fn()
	})
	s.tasks[t] = struct{}{}
	return t
}

// Cancel снимает задачу, если она еще не успела выполниться.
// Возвращает true, если задача была отменена этим вызовом.
func (t *Task) Cancel() bool {
	if t.owner == nil {
		return false
	}
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.fired {
		return false
	}
	if _, ok := t.owner.tasks[t]; !ok {
		return false
	}
	delete(t.owner.tasks, t)
	t.timer.Stop()
	return true
}

// Pending возвращает число еще не выполненных задач.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Close отменяет все невыполненные задачи. Повторный вызов безопасен.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, t)
	}
}
