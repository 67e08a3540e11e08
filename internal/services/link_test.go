package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/npolukhin/shortlink/internal/db/memory"
	"github.com/npolukhin/shortlink/internal/models"
	"github.com/npolukhin/shortlink/internal/repositories/memstore"
)

// clickRecorder синхронная замена очереди кликов для тестов.
type clickRecorder struct {
	mu     sync.Mutex
	events []ClickEvent
	full   bool
}

func (c *clickRecorder) Dispatch(event ClickEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.full {
		return false
	}
	c.events = append(c.events, event)
	return true
}

type LinkServiceSuite struct {
	suite.Suite
	repo    *memstore.LinkRepo
	clicks  *clickRecorder
	service *LinkService
	now     time.Time
}

func (s *LinkServiceSuite) SetupTest() {
	s.repo = memstore.NewLinkRepo(memory.NewMStorage())
	s.clicks = &clickRecorder{}
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	gen, err := NewCodeGenerator("abcdefghijklmnopqrstuvwxyz", 6)
	s.Require().NoError(err)

	s.service = NewLinkService(LinkServiceParams{
		Repo:       s.repo,
		Gen:        gen,
		Clicks:     s.clicks,
		DefaultTTL: 72 * time.Hour,
		Logger:     logrus.New(),
		Now:        func() time.Time { return s.now },
	})
}

func (s *LinkServiceSuite) TestAllocate_Generated() {
	destination := gofakeit.URL()

	link, reused, err := s.service.Allocate(context.Background(), destination, "", nil)
	s.Require().NoError(err)
	s.False(reused)
	s.Len(link.Code, 6)

	// дефолтный срок жизни подставлен от текущего момента
	s.Require().NotNil(link.ExpiresAt)
	s.True(link.ExpiresAt.Equal(s.now.Add(72 * time.Hour)))

	stored, getErr := s.repo.GetByCode(context.Background(), link.Code)
	s.Require().NoError(getErr)
	s.Equal(link.Destination, stored.Destination)
}

func (s *LinkServiceSuite) TestAllocate_ReusesLiveDestination() {
	destination := gofakeit.URL()

	first, reused, err := s.service.Allocate(context.Background(), destination, "", nil)
	s.Require().NoError(err)
	s.False(reused)

	second, reused, err := s.service.Allocate(context.Background(), destination, "", nil)
	s.Require().NoError(err)
	s.True(reused)
	s.Equal(first.ID, second.ID)
	s.Equal(first.Code, second.Code)

	// реюз побеждает даже при запрошенном алиасе
	third, reused, err := s.service.Allocate(context.Background(), destination, "my-alias", nil)
	s.Require().NoError(err)
	s.True(reused)
	s.Equal(first.Code, third.Code)
}

func (s *LinkServiceSuite) TestAllocate_ExpiredIsNotReused() {
	destination := gofakeit.URL()
	past := s.now.Add(-time.Hour)
	expired := &models.ShortLink{
		Code:        "olddead",
		Destination: destination,
		CreatedAt:   s.now.Add(-48 * time.Hour),
		ExpiresAt:   &past,
	}
	s.Require().NoError(s.repo.Create(context.Background(), expired))

	link, reused, err := s.service.Allocate(context.Background(), destination, "", nil)
	s.Require().NoError(err)
	s.False(reused)
	s.NotEqual(expired.Code, link.Code)
}

func (s *LinkServiceSuite) TestAllocate_CustomAlias() {
	link, reused, err := s.service.Allocate(context.Background(), gofakeit.URL(), "promo-2025", nil)
	s.Require().NoError(err)
	s.False(reused)
	s.Equal("promo-2025", link.Code)
}

func (s *LinkServiceSuite) TestAllocate_InvalidAlias() {
	tests := []struct {
		name  string
		alias string
	}{
		{name: "too short", alias: "ab"},
		{name: "bad chars", alias: "my_alias!"},
		{name: "reserved", alias: "admin"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, _, err := s.service.Allocate(context.Background(), gofakeit.URL(), tt.alias, nil)
			s.True(errors.Is(err, ErrInvalidAlias), "got %+v", err)
		})
	}
}

func (s *LinkServiceSuite) TestAllocate_AliasTaken() {
	_, _, err := s.service.Allocate(context.Background(), "https://first.example.com", "taken-one", nil)
	s.Require().NoError(err)

	// другой destination, тот же алиас
	_, _, err = s.service.Allocate(context.Background(), "https://second.example.com", "taken-one", nil)
	s.True(errors.Is(err, ErrAliasTaken), "got %+v", err)
}

func (s *LinkServiceSuite) TestAllocate_InvalidDestination() {
	tests := []struct {
		name   string
		rawURL string
	}{
		{name: "empty", rawURL: ""},
		{name: "no scheme", rawURL: "notaurl"},
		{name: "relative path", rawURL: "/relative/path"},
		{name: "wrong scheme", rawURL: "ftp://host.com/file"},
		{name: "no host", rawURL: "http://"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, _, err := s.service.Allocate(context.Background(), tt.rawURL, "", nil)
			s.True(errors.Is(err, ErrInvalidDestination), "got %+v", err)
		})
	}
}

func (s *LinkServiceSuite) TestAllocate_Expiry() {
	future := s.now.Add(24 * time.Hour)
	link, _, err := s.service.Allocate(context.Background(), gofakeit.URL(), "", &future)
	s.Require().NoError(err)
	s.Require().NotNil(link.ExpiresAt)
	s.True(link.ExpiresAt.Equal(future))

	past := s.now.Add(-time.Minute)
	_, _, err = s.service.Allocate(context.Background(), gofakeit.URL(), "", &past)
	s.True(errors.Is(err, ErrInvalidExpiry), "got %+v", err)

	// срок ровно "сейчас" тоже не в будущем
	exactlyNow := s.now
	_, _, err = s.service.Allocate(context.Background(), gofakeit.URL(), "", &exactlyNow)
	s.True(errors.Is(err, ErrInvalidExpiry), "got %+v", err)
}

func (s *LinkServiceSuite) TestAllocate_Exhausted() {
	gen, genErr := NewCodeGenerator("ab", 1)
	s.Require().NoError(genErr)
	service := NewLinkService(LinkServiceParams{
		Repo:       s.repo,
		Gen:        gen,
		Clicks:     s.clicks,
		DefaultTTL: 72 * time.Hour,
		Logger:     logrus.New(),
		Now:        func() time.Time { return s.now },
	})

	// все пространство кодов занято
	for _, code := range []string{"a", "b"} {
		link := &models.ShortLink{Code: code, Destination: gofakeit.URL(), CreatedAt: s.now}
		s.Require().NoError(s.repo.Create(context.Background(), link))
	}

	_, _, err := service.Allocate(context.Background(), "https://fresh.example.com", "", nil)
	s.True(errors.Is(err, ErrAllocationExhausted), "got %+v", err)
}

func (s *LinkServiceSuite) TestAllocate_Concurrent() {
	gen, genErr := NewCodeGenerator("abcd", 1)
	s.Require().NoError(genErr)
	service := NewLinkService(LinkServiceParams{
		Repo:       s.repo,
		Gen:        gen,
		Clicks:     s.clicks,
		DefaultTTL: 72 * time.Hour,
		Logger:     logrus.New(),
		Now:        func() time.Time { return s.now },
	})

	const workers = 20
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			destination := fmt.Sprintf("https://example.com/page/%d", i)
			_, _, err := service.Allocate(context.Background(), destination, "", nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		// единственная легальная ошибка в этой гонке
		s.True(errors.Is(err, ErrAllocationExhausted), "got %+v", err)
	}

	// кодов всего 4, и каждый успех занял уникальный
	s.LessOrEqual(succeeded, 4)
	s.Positive(succeeded)
	count, countErr := s.repo.CountLinks(context.Background())
	s.Require().NoError(countErr)
	s.Equal(int64(succeeded), count)
}

func (s *LinkServiceSuite) TestResolve() {
	destination := gofakeit.URL()
	link, _, err := s.service.Allocate(context.Background(), destination, "", nil)
	s.Require().NoError(err)

	resolved, resErr := s.service.Resolve(context.Background(), link.Code)
	s.Require().NoError(resErr)
	s.Equal(link.Destination, resolved.Destination)

	// успешный резолв диспатчит событие клика
	s.Require().Len(s.clicks.events, 1)
	s.Equal(link.ID, s.clicks.events[0].LinkID)
	s.True(s.clicks.events[0].At.Equal(s.now))
}

func (s *LinkServiceSuite) TestResolve_NotFound() {
	_, err := s.service.Resolve(context.Background(), "missing")
	s.True(errors.Is(err, ErrRecordNotFound), "got %+v", err)
	s.Empty(s.clicks.events)
}

func (s *LinkServiceSuite) TestResolve_ExpiredLooksAbsent() {
	future := s.now.Add(time.Hour)
	link, _, err := s.service.Allocate(context.Background(), gofakeit.URL(), "", &future)
	s.Require().NoError(err)

	// переводим часы за срок жизни
	s.now = s.now.Add(2 * time.Hour)

	_, resErr := s.service.Resolve(context.Background(), link.Code)
	s.True(errors.Is(resErr, ErrRecordNotFound), "got %+v", resErr)
	s.Empty(s.clicks.events)
}

func (s *LinkServiceSuite) TestResolve_FullQueueDoesNotFail() {
	link, _, err := s.service.Allocate(context.Background(), gofakeit.URL(), "", nil)
	s.Require().NoError(err)

	s.clicks.full = true

	resolved, resErr := s.service.Resolve(context.Background(), link.Code)
	s.Require().NoError(resErr)
	s.Equal(link.Code, resolved.Code)
}

func TestLinkServiceSuite(t *testing.T) {
	suite.Run(t, new(LinkServiceSuite))
}
