// Package workers фоновые обработчики событий кликов.
//
// Инкремент счетчика при редиректе — отцепленный сайд-эффект: он не
// имеет права блокировать ответ или превращать успешный редирект в
// ошибку. Поэтому события складываются в буферизованный канал, а пул
// воркеров persist-ит их с ограниченным числом повторов. Событие,
// которое не удалось сохранить, уходит в лог — это и есть dead-letter
// канал для оператора.
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/npolukhin/shortlink/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	// maxAttempts попытки сохранить одно событие.
	maxAttempts = 3
	// retryDelay пауза между попытками.
	retryDelay = 100 * time.Millisecond
	// storeTimeout потолок на один поход в хранилище.
	storeTimeout = 3 * time.Second
)

// ClickStore минимальный срез репозитория, нужный воркерам.
type ClickStore interface {
	RegisterClick(ctx context.Context, linkID uint, at time.Time) error
}

// ClickQueue буферизованная очередь кликов с пулом воркеров.
// Реализует services.ClickDispatcher.
type ClickQueue struct {
	events chan services.ClickEvent
	store  ClickStore
	logger *logrus.Entry
	wg     sync.WaitGroup

	closeOnce sync.Once
}

func NewClickQueue(store ClickStore, bufferSize int, logger *logrus.Logger) *ClickQueue {
	return &ClickQueue{
		events: make(chan services.ClickEvent, bufferSize),
		store:  store,
		logger: logger.WithField("module", "workers/clicks"),
	}
}

// Start запускает workerCount воркеров, читающих общий канал.
func (q *ClickQueue) Start(workerCount int) {
	q.logger.Infof("starting %d click worker(s)", workerCount)
	for range workerCount {
		q.wg.Add(1)
		go q.worker()
	}
}

// Dispatch кладет событие в очередь не блокируясь. false означает, что
// буфер полон и событие отброшено — решает вызывающая сторона, как это
// логировать.
func (q *ClickQueue) Dispatch(event services.ClickEvent) bool {
	select {
	case q.events <- event:
		return true
	default:
		return false
	}
}

// Close перестает принимать события и дожидается, пока воркеры дольют
// остаток очереди в хранилище.
func (q *ClickQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.events)
	})
	q.wg.Wait()
}

func (q *ClickQueue) worker() {
	defer q.wg.Done()
	for event := range q.events {
		q.persist(event)
	}
}

// persist сохраняет событие с ограниченным числом повторов. После
// исчерпания попыток событие теряется, остается только запись в логе.
func (q *ClickQueue) persist(event services.ClickEvent) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(retryDelay)
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		lastErr = q.store.RegisterClick(ctx, event.LinkID, event.At)
		cancel()

		if lastErr == nil {
			return
		}
	}
	q.logger.WithError(lastErr).
		WithField("linkID", event.LinkID).
		Error("click event dropped after retries")
}
