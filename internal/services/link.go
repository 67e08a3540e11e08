package services

import (
	"context"
	"net/url"
	"time"

	"github.com/npolukhin/shortlink/internal/models"
	"github.com/npolukhin/shortlink/internal/repositories"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// maxAllocAttempts бюджет ретраев генерации кода. Покрывает
	// остаточный риск коллизий по парадоксу дней рождения, а не слабость
	// генератора.
	maxAllocAttempts = 5
	// storageTimeout потолок на один поход в хранилище.
	storageTimeout = 3 * time.Second
)

// LinkService аллокация и резолв коротких ссылок.
type LinkService struct {
	repo       LinkRepository
	gen        *CodeGenerator
	clicks     ClickDispatcher
	defaultTTL time.Duration
	now        func() time.Time
	logger     *logrus.Entry
}

type LinkServiceParams struct {
	Repo       LinkRepository
	Gen        *CodeGenerator
	Clicks     ClickDispatcher
	DefaultTTL time.Duration
	Logger     *logrus.Logger
	// Now подменяется в тестах; nil означает time.Now.
	Now func() time.Time
}

func NewLinkService(p LinkServiceParams) *LinkService {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &LinkService{
		repo:       p.Repo,
		gen:        p.Gen,
		clicks:     p.Clicks,
		defaultTTL: p.DefaultTTL,
		now:        now,
		logger:     p.Logger.WithField("module", "services/link"),
	}
}

// Allocate выделяет код для destination либо резервирует кастомный
// алиас. Второе возвращаемое значение — признак повторного
// использования уже существующей живой записи.
//
// Успех оставляет в хранилище ровно одну новую запись, любая ошибка —
// ни одной.
func (s *LinkService) Allocate(
	ctx context.Context,
	rawURL string,
	alias string,
	expiresAt *time.Time,
) (*models.ShortLink, bool, error) {
	destination, destErr := validateDestination(rawURL)
	if destErr != nil {
		return nil, false, destErr
	}

	now := s.now()
	expiry, expErr := s.resolveExpiry(now, expiresAt)
	if expErr != nil {
		return nil, false, expErr
	}

	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	// Идемпотентный реюз: живая запись с тем же destination отдается
	// как есть, истекшие записи не трогаем ради истории кликов.
	existing, existingErr := s.repo.GetActiveByDestination(ctx, destination, now)
	if existingErr == nil {
		return existing, true, nil
	}
	if !errors.Is(existingErr, repositories.ErrNotFound) {
		s.logger.WithError(existingErr).Error("reuse check failed")
		return nil, false, ErrUnknown
	}

	if alias != "" {
		link, aliasErr := s.allocateAlias(ctx, destination, alias, now, expiry)
		return link, false, aliasErr
	}

	link, genErr := s.allocateGenerated(ctx, destination, now, expiry)
	return link, false, genErr
}

// allocateAlias резервирует кастомный алиас. Предварительная проверка
// занятости — только быстрый путь: авторитетен конфликт уникального
// индекса при вставке.
func (s *LinkService) allocateAlias(
	ctx context.Context,
	destination, alias string,
	now time.Time,
	expiry *time.Time,
) (*models.ShortLink, error) {
	if err := validateAlias(alias); err != nil {
		s.logger.WithError(err).Debug("alias rejected")
		return nil, err
	}

	if _, err := s.repo.GetByCode(ctx, alias); err == nil {
		return nil, errors.Wrapf(ErrAliasTaken, "alias `%s`", alias)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnknown
	}

	link := &models.ShortLink{
		Code:        alias,
		Destination: destination,
		CreatedAt:   now,
		ExpiresAt:   expiry,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// гонка с параллельной вставкой того же алиаса
			return nil, errors.Wrapf(ErrAliasTaken, "alias `%s`", alias)
		}
		return nil, ErrUnknown
	}
	return link, nil
}

// allocateGenerated вставляет случайный кандидат, перегенерируя его при
// конфликте кода вплоть до исчерпания бюджета ретраев.
func (s *LinkService) allocateGenerated(
	ctx context.Context,
	destination string,
	now time.Time,
	expiry *time.Time,
) (*models.ShortLink, error) {
	for attempt := 1; attempt <= maxAllocAttempts; attempt++ {
		code, genErr := s.gen.Generate()
		if genErr != nil {
			s.logger.WithError(genErr).Error("code generation failed")
			return nil, ErrUnknown
		}

		link := &models.ShortLink{
			Code:        code,
			Destination: destination,
			CreatedAt:   now,
			ExpiresAt:   expiry,
		}
		createErr := s.repo.Create(ctx, link)
		if createErr == nil {
			return link, nil
		}
		if errors.Is(createErr, repositories.ErrDuplicateKey) {
			s.logger.WithField("attempt", attempt).Debugf("code `%s` already exists, retrying", code)
			continue
		}
		return nil, ErrUnknown
	}
	return nil, ErrAllocationExhausted
}

// Resolve возвращает ссылку по коду. Истекшие коды неотличимы от
// несуществующих. Успешный резолв диспатчит событие клика: его судьба
// никак не влияет на ответ.
func (s *LinkService) Resolve(ctx context.Context, code string) (*models.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errors.Wrapf(ErrRecordNotFound, "code %s not found", code)
		}
		return nil, ErrUnknown
	}

	now := s.now()
	if link.Expired(now) {
		return nil, errors.Wrapf(ErrRecordNotFound, "code %s not found", code)
	}

	if s.clicks != nil {
		if ok := s.clicks.Dispatch(ClickEvent{LinkID: link.ID, At: now}); !ok {
			s.logger.WithField("linkID", link.ID).Warn("click queue is full, event dropped")
		}
	}
	return link, nil
}

// resolveExpiry проверяет пользовательский срок жизни либо подставляет
// дефолтный. Срок обязан быть строго в будущем.
func (s *LinkService) resolveExpiry(now time.Time, expiresAt *time.Time) (*time.Time, error) {
	if expiresAt == nil {
		if s.defaultTTL <= 0 {
			return nil, nil
		}
		t := now.Add(s.defaultTTL)
		return &t, nil
	}
	if !expiresAt.After(now) {
		return nil, errors.Wrapf(ErrInvalidExpiry, "expiry %s is not in the future", expiresAt)
	}
	t := *expiresAt
	return &t, nil
}

// validateDestination проверяет, что строка — абсолютный http(s) URL.
func validateDestination(rawURL string) (string, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", errors.Wrap(ErrInvalidDestination, "invalid URL format")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", errors.Wrap(ErrInvalidDestination, "URL must have http or https scheme")
	}
	if parsedURL.Host == "" {
		return "", errors.Wrap(ErrInvalidDestination, "URL must have a host")
	}
	return parsedURL.String(), nil
}
