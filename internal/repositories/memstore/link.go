// Package memstore реализация репозитория ссылок для in-memory
// хранилища. Используется в тестах и как легковесный бекенд без sqlite.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/npolukhin/shortlink/internal/db/memory"
	"github.com/npolukhin/shortlink/internal/models"
	"github.com/npolukhin/shortlink/internal/repositories"
)

// LinkRepo хранит ссылки в MStorage с ключом по коду. Индекс id->code и
// суточные корзины живут рядом под общим мьютексом: семантику гонок за
// код все равно определяет уникальность ключа в MStorage.
type LinkRepo struct {
	s       *memory.MStorage
	mu      sync.Mutex
	nextID  uint
	byID    map[uint]string
	buckets map[uint]map[time.Time]uint64
}

func NewLinkRepo(store *memory.MStorage) *LinkRepo {
	return &LinkRepo{
		s:       store,
		byID:    make(map[uint]string),
		buckets: make(map[uint]map[time.Time]uint64),
	}
}

func (r *LinkRepo) Create(_ context.Context, link *models.ShortLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	link.ID = r.nextID
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	if err := memory.Set[models.ShortLink](link.Code, link, r.s); err != nil {
		r.nextID--
		return convertErrorType(err)
	}
	r.byID[link.ID] = link.Code
	return nil
}

func (r *LinkRepo) GetByCode(_ context.Context, code string) (*models.ShortLink, error) {
	link, err := memory.Get[models.ShortLink](code, r.s)
	if err != nil {
		return nil, convertErrorType(err)
	}
	return link, nil
}

func (r *LinkRepo) GetByID(ctx context.Context, id uint) (*models.ShortLink, error) {
	r.mu.Lock()
	code, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.GetByCode(ctx, code)
}

func (r *LinkRepo) GetActiveByDestination(
	_ context.Context,
	destination string,
	now time.Time,
) (*models.ShortLink, error) {
	links, err := memory.All[models.ShortLink](r.s)
	if err != nil {
		return nil, convertErrorType(err)
	}

	var found *models.ShortLink
	for i := range links {
		l := links[i]
		if l.Destination != destination || l.Expired(now) {
			continue
		}
		// при нескольких живых записях отдаем самую раннюю, как и sql
		if found == nil || l.ID < found.ID {
			found = &links[i]
		}
	}
	if found == nil {
		return nil, repositories.ErrNotFound
	}
	return found, nil
}

func (r *LinkRepo) RegisterClick(ctx context.Context, linkID uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.byID[linkID]
	if !ok {
		return repositories.ErrNotFound
	}
	link, err := memory.Get[models.ShortLink](code, r.s)
	if err != nil {
		return convertErrorType(err)
	}

	link.ClickCount++
	clickedAt := at
	link.LastClickedAt = &clickedAt
	if err := memory.Update[models.ShortLink](code, link, r.s); err != nil {
		return convertErrorType(err)
	}

	day := models.BucketDay(at)
	if r.buckets[linkID] == nil {
		r.buckets[linkID] = make(map[time.Time]uint64)
	}
	r.buckets[linkID][day]++
	return nil
}

func (r *LinkRepo) CountLinks(_ context.Context) (int64, error) {
	return int64(r.s.Len()), nil
}

func (r *LinkRepo) SumClicks(_ context.Context) (int64, error) {
	links, err := memory.All[models.ShortLink](r.s)
	if err != nil {
		return 0, convertErrorType(err)
	}
	var total int64
	for _, l := range links {
		total += int64(l.ClickCount)
	}
	return total, nil
}

func (r *LinkRepo) ClicksSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := models.BucketDay(since)
	var total int64
	for _, byDay := range r.buckets {
		for d, clicks := range byDay {
			if !d.Before(day) {
				total += int64(clicks)
			}
		}
	}
	return total, nil
}

func (r *LinkRepo) TopByClicks(_ context.Context, limit int) ([]models.ShortLink, error) {
	links, err := memory.All[models.ShortLink](r.s)
	if err != nil {
		return nil, convertErrorType(err)
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].ClickCount != links[j].ClickCount {
			return links[i].ClickCount > links[j].ClickCount
		}
		return lastClickedAfter(links[i].LastClickedAt, links[j].LastClickedAt)
	})
	if len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

func (r *LinkRepo) DailyClicks(
	_ context.Context,
	linkID uint,
	from, to time.Time,
) ([]models.DailyClicks, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromDay := models.BucketDay(from)
	toDay := models.BucketDay(to)

	var result []models.DailyClicks
	for d, clicks := range r.buckets[linkID] {
		if d.Before(fromDay) || d.After(toDay) {
			continue
		}
		result = append(result, models.DailyClicks{Day: d, Clicks: clicks})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day.Before(result[j].Day) })
	return result, nil
}

func (r *LinkRepo) Search(_ context.Context, query string, limit int) ([]models.ShortLink, error) {
	links, err := memory.All[models.ShortLink](r.s)
	if err != nil {
		return nil, convertErrorType(err)
	}

	q := strings.ToLower(query)
	var matched []models.ShortLink
	for _, l := range links {
		if strings.HasPrefix(strings.ToLower(l.Code), q) ||
			strings.Contains(strings.ToLower(l.Destination), q) {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ClickCount > matched[j].ClickCount })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Ping всегда успешен: хранилище в памяти не может быть недоступно.
func (r *LinkRepo) Ping(_ context.Context) error {
	if r.s == nil {
		return errors.New("memstore is not initialized")
	}
	return nil
}

func lastClickedAfter(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}
