// Package ratelimit лимитер с фиксированным окном на идентификатор
// клиента. Грубое окно по wall-clock: на границе окон возможны всплески
// вдвое выше лимита — для защиты от злоупотреблений этого достаточно.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Policy лимит и длина окна.
type Policy struct {
	Limit  int
	Window time.Duration
}

type window struct {
	count int
	start time.Time
}

// Limiter счетчики запросов по клиентам. Состояние только в памяти
// процесса; устаревшие окна выметает Sweep.
type Limiter struct {
	policy  Policy
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func New(policy Policy) *Limiter {
	return &Limiter{
		policy:  policy,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow регистрирует запрос клиента и сообщает, прошел ли он лимит.
// Первый запрос открывает окно со счетчиком 1; внутри окна счетчик
// растет и запросы 1..Limit проходят; окно старше Window сбрасывается.
func (l *Limiter) Allow(clientID string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[clientID]
	if !ok {
		l.windows[clientID] = &window{count: 1, start: now}
		return true
	}

	if now.Sub(w.start) > l.policy.Window {
		w.count = 1
		w.start = now
		return true
	}

	w.count++
	return w.count <= l.policy.Limit
}

// Sweep удаляет окна, по которым лимит уже не действует. Возвращает
// количество удаленных записей.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var removed int
	for clientID, w := range l.windows {
		if now.Sub(w.start) > l.policy.Window {
			delete(l.windows, clientID)
			removed++
		}
	}
	return removed
}

// StartSweeper запускает периодическую уборку до отмены контекста.
// Это операционная мера против неограниченного роста карты клиентов,
// на корректность лимитов она не влияет.
func (l *Limiter) StartSweeper(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// Len текущее количество отслеживаемых клиентов.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.windows)
}
