package smocks

import (
	"context"
	"time"

	"github.com/npolukhin/shortlink/internal/models"
	"github.com/npolukhin/shortlink/internal/services"
	"github.com/stretchr/testify/mock"
)

// LinkMock мок сервиса ссылок для тестов контроллеров.
type LinkMock struct {
	mock.Mock
}

func (l *LinkMock) Allocate(
	_ context.Context,
	rawURL, alias string,
	expiresAt *time.Time,
) (*models.ShortLink, bool, error) {
	args := l.Called(rawURL, alias, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2) //nolint:wrapcheck,errcheck
	}
	return args.Get(0).(*models.ShortLink), args.Bool(1), args.Error(2) //nolint:wrapcheck,errcheck
}

func (l *LinkMock) Resolve(_ context.Context, code string) (*models.ShortLink, error) {
	args := l.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1) //nolint:wrapcheck,errcheck
	}
	return args.Get(0).(*models.ShortLink), args.Error(1) //nolint:wrapcheck,errcheck
}

// StatsMock мок агрегатора аналитики.
type StatsMock struct {
	mock.Mock
}

func (s *StatsMock) Overview(_ context.Context) (*services.Overview, error) {
	args := s.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1) //nolint:wrapcheck,errcheck
	}
	return args.Get(0).(*services.Overview), args.Error(1) //nolint:wrapcheck,errcheck
}

func (s *StatsMock) Detail(_ context.Context, linkID uint) (*services.LinkDetail, error) {
	args := s.Called(linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1) //nolint:wrapcheck,errcheck
	}
	return args.Get(0).(*services.LinkDetail), args.Error(1) //nolint:wrapcheck,errcheck
}

func (s *StatsMock) Search(_ context.Context, query string) ([]services.LinkSummary, error) {
	args := s.Called(query)
	if args.Get(0) == nil {
		return nil, args.Error(1) //nolint:wrapcheck,errcheck
	}
	return args.Get(0).([]services.LinkSummary), args.Error(1) //nolint:wrapcheck,errcheck
}

// PingMock мок проверки соединения.
type PingMock struct {
	mock.Mock
}

func (p *PingMock) CheckConnection(_ context.Context) error {
	args := p.Called()
	return args.Error(0) //nolint:wrapcheck,errcheck
}
