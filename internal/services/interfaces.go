package services

import (
	"context"
	"time"

	"github.com/npolukhin/shortlink/internal/models"
)

// LinkRepository описывает хранилище коротких ссылок. Вставка обязана
// опираться на уникальный индекс по коду и возвращать
// repositories.ErrDuplicateKey при конфликте — предварительные проверки
// сервисного слоя лишь оптимизация.
type LinkRepository interface {
	Create(ctx context.Context, link *models.ShortLink) error
	GetByCode(ctx context.Context, code string) (*models.ShortLink, error)
	GetByID(ctx context.Context, id uint) (*models.ShortLink, error)
	// GetActiveByDestination находит живую запись с тем же destination.
	GetActiveByDestination(ctx context.Context, destination string, now time.Time) (*models.ShortLink, error)
	// RegisterClick атомарный инкремент счетчика, lastClickedAt и суточной корзины.
	RegisterClick(ctx context.Context, linkID uint, at time.Time) error

	CountLinks(ctx context.Context) (int64, error)
	SumClicks(ctx context.Context) (int64, error)
	ClicksSince(ctx context.Context, since time.Time) (int64, error)
	TopByClicks(ctx context.Context, limit int) ([]models.ShortLink, error)
	DailyClicks(ctx context.Context, linkID uint, from, to time.Time) ([]models.DailyClicks, error)
	Search(ctx context.Context, query string, limit int) ([]models.ShortLink, error)
}

// ClickEvent отложенное событие клика.
type ClickEvent struct {
	LinkID uint
	At     time.Time
}

// ClickDispatcher принимает событие клика не блокируя вызывающего.
// Возвращает false если событие пришлось отбросить (очередь полна).
type ClickDispatcher interface {
	Dispatch(event ClickEvent) bool
}
