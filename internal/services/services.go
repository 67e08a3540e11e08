package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/npolukhin/shortlink/internal/db"
	"github.com/npolukhin/shortlink/internal/db/memory"
	"github.com/npolukhin/shortlink/internal/repositories/memstore"
	"github.com/npolukhin/shortlink/internal/repositories/sql"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ServiceType string

const (
	ServiceTypeSQLite   ServiceType = "sqlite"
	ServiceTypeInMemory ServiceType = "inMemory"
)

// Services сервисный слой приложения.
type Services struct {
	Links *LinkService
	Stats *StatsService
	Ping  *PingService
}

// NewRepository создает репозиторий и пингер поверх переданного
// соединения. Тип соединения обязан соответствовать sType.
func NewRepository(conn any, sType ServiceType, logger *logrus.Logger) (LinkRepository, Pinger, error) {
	switch sType {
	case ServiceTypeSQLite:
		gormDB, ok := conn.(*gorm.DB)
		if !ok {
			return nil, nil, errors.New("invalid connection type. expected *gorm.DB")
		}
		return sql.NewLinkRepo(gormDB, logger), db.NewGormPinger(gormDB), nil
	case ServiceTypeInMemory:
		store, ok := conn.(*memory.MStorage)
		if !ok {
			return nil, nil, errors.New("invalid connection type. expected *memory.MStorage")
		}
		repo := memstore.NewLinkRepo(store)
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("unknown service type: %s", sType)
	}
}

type FactoryParams struct {
	Repo       LinkRepository
	Pinger     Pinger
	Gen        *CodeGenerator
	Clicks     ClickDispatcher
	DefaultTTL time.Duration
	Logger     *logrus.Logger
	Now        func() time.Time
}

// Factory собирает сервисный слой из готовых зависимостей. Репозиторий
// и очередь кликов создает вызывающая сторона: очереди нужен
// репозиторий, а сервису ссылок — очередь.
func Factory(p FactoryParams) *Services {
	return &Services{
		Links: NewLinkService(LinkServiceParams{
			Repo:       p.Repo,
			Gen:        p.Gen,
			Clicks:     p.Clicks,
			DefaultTTL: p.DefaultTTL,
			Logger:     p.Logger,
			Now:        p.Now,
		}),
		Stats: NewStatsService(p.Repo, p.Logger, p.Now),
		Ping:  NewPingService(p.Pinger),
	}
}
