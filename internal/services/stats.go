package services

import (
	"context"
	"strings"
	"time"

	"github.com/npolukhin/shortlink/internal/models"
	"github.com/npolukhin/shortlink/internal/repositories"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	// hotLinksLimit размер списка горячих ссылок в сводке.
	hotLinksLimit = 10
	// overviewWindowDays окно сводки "клики за последние N дней".
	overviewWindowDays = 7
	// detailSeriesDays длина суточной серии в деталях ссылки.
	detailSeriesDays = 14
	// searchLimit потолок выдачи поиска.
	searchLimit = 50
)

// LinkSummary представление ссылки в ответах агрегатора.
type LinkSummary struct {
	ID            uint       `json:"id"`
	Code          string     `json:"code"`
	Destination   string     `json:"destination"`
	ClickCount    uint64     `json:"clickCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
}

// Overview сводка по всем ссылкам.
type Overview struct {
	TotalLinks      int64         `json:"totalLinks"`
	TotalClicks     int64         `json:"totalClicks"`
	ClicksLast7Days int64         `json:"clicksLast7Days"`
	HotLinks        []LinkSummary `json:"hotLinks"`
}

// LinkDetail метаданные ссылки плюс суточная серия за 14 дней,
// от старых дней к новым, пропуски заполнены нулями.
type LinkDetail struct {
	LinkSummary
	DailyClicks []models.DailyClicks `json:"dailyClicks"`
}

// StatsService read-only агрегаты поверх ссылок и суточных корзин.
// Все операции — чистые чтения; счетчики могут отставать от
// параллельных инкрементов, линеаризуемость не обещается.
type StatsService struct {
	repo   LinkRepository
	now    func() time.Time
	logger *logrus.Entry
}

func NewStatsService(repo LinkRepository, logger *logrus.Logger, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{
		repo:   repo,
		now:    now,
		logger: logger.WithField("module", "services/stats"),
	}
}

func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	totalLinks, err := s.repo.CountLinks(ctx)
	if err != nil {
		return nil, s.failed("count links", err)
	}
	totalClicks, err := s.repo.SumClicks(ctx)
	if err != nil {
		return nil, s.failed("sum clicks", err)
	}

	since := s.now().UTC().AddDate(0, 0, -(overviewWindowDays - 1))
	recentClicks, err := s.repo.ClicksSince(ctx, since)
	if err != nil {
		return nil, s.failed("sum recent clicks", err)
	}

	top, err := s.repo.TopByClicks(ctx, hotLinksLimit)
	if err != nil {
		return nil, s.failed("get hot links", err)
	}

	return &Overview{
		TotalLinks:      totalLinks,
		TotalClicks:     totalClicks,
		ClicksLast7Days: recentClicks,
		HotLinks:        lo.Map(top, func(l models.ShortLink, _ int) LinkSummary { return toSummary(&l) }),
	}, nil
}

func (s *StatsService) Detail(ctx context.Context, linkID uint) (*LinkDetail, error) {
	link, err := s.repo.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.Wrapf(ErrRecordNotFound, "link %d not found", linkID)
		}
		return nil, s.failed("get link", err)
	}

	today := models.BucketDay(s.now())
	from := today.AddDate(0, 0, -(detailSeriesDays - 1))
	buckets, err := s.repo.DailyClicks(ctx, linkID, from, today)
	if err != nil {
		return nil, s.failed("get daily clicks", err)
	}

	// раскладываем корзины в плотную серию фиксированной длины
	byDay := lo.SliceToMap(buckets, func(b models.DailyClicks) (time.Time, uint64) {
		return b.Day, b.Clicks
	})
	series := make([]models.DailyClicks, 0, detailSeriesDays)
	for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
		series = append(series, models.DailyClicks{Day: day, Clicks: byDay[day]})
	}

	return &LinkDetail{
		LinkSummary: toSummary(link),
		DailyClicks: series,
	}, nil
}

// Search ищет по коду (точно/префикс) и подстроке destination без учета
// регистра. Пустой после трима запрос — пустая выдача, не ошибка.
func (s *StatsService) Search(ctx context.Context, query string) ([]LinkSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []LinkSummary{}, nil
	}

	links, err := s.repo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, s.failed("search links", err)
	}

	// точные совпадения кода поднимаем в начало выдачи
	exact, rest := lo.FilterReject(links, func(l models.ShortLink, _ int) bool {
		return strings.EqualFold(l.Code, query)
	})
	ranked := append(exact, rest...)

	return lo.Map(ranked, func(l models.ShortLink, _ int) LinkSummary { return toSummary(&l) }), nil
}

func (s *StatsService) failed(op string, err error) error {
	s.logger.WithError(err).Errorf("%s failed", op)
	return ErrUnknown
}

func toSummary(l *models.ShortLink) LinkSummary {
	return LinkSummary{
		ID:            l.ID,
		Code:          l.Code,
		Destination:   l.Destination,
		ClickCount:    l.ClickCount,
		CreatedAt:     l.CreatedAt,
		ExpiresAt:     l.ExpiresAt,
		LastClickedAt: l.LastClickedAt,
	}
}
