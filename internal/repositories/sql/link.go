package sql

import (
	"context"
	"strings"
	"time"

	"github.com/npolukhin/shortlink/internal/models"
	"github.com/npolukhin/shortlink/internal/repositories"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LinkRepo репозиторий коротких ссылок поверх gorm.
// Уникальность кода гарантирует индекс в БД: все гонки за один и тот же
// код решаются здесь ошибкой ErrDuplicateKey, а не проверками выше.
type LinkRepo struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewLinkRepo(db *gorm.DB, logger *logrus.Logger) *LinkRepo {
	return &LinkRepo{
		db:     db,
		logger: logger.WithField("module", "repository/sql/link"),
	}
}

func (r *LinkRepo) Create(ctx context.Context, link *models.ShortLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repositories.ErrDuplicateKey
		}
		r.logger.WithError(err).Errorf("failed to create record %+v", *link)
		return repositories.ErrUnknown
	}
	return nil
}

func (r *LinkRepo) GetByCode(ctx context.Context, code string) (*models.ShortLink, error) {
	var link models.ShortLink
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		r.logger.WithError(err).Errorf("failed to get record by code %s", code)
		return nil, convertErrorType(err)
	}
	return &link, nil
}

func (r *LinkRepo) GetByID(ctx context.Context, id uint) (*models.ShortLink, error) {
	var link models.ShortLink
	if err := r.db.WithContext(ctx).First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		r.logger.WithError(err).Errorf("failed to get record by id %d", id)
		return nil, convertErrorType(err)
	}
	return &link, nil
}

// GetActiveByDestination находит живую (не истекшую) ссылку на заданный
// destination. Истекшие записи с тем же destination игнорируются.
func (r *LinkRepo) GetActiveByDestination(
	ctx context.Context,
	destination string,
	now time.Time,
) (*models.ShortLink, error) {
	var link models.ShortLink
	err := r.db.WithContext(ctx).
		Where("destination = ? AND (expires_at IS NULL OR expires_at > ?)", destination, now).
		Order("id").
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		r.logger.WithError(err).Errorf("failed to get active record by destination %s", destination)
		return nil, convertErrorType(err)
	}
	return &link, nil
}

// RegisterClick атомарно инкрементирует счетчик кликов, обновляет
// lastClickedAt и суточную корзину. Одна транзакция на клик.
func (r *LinkRepo) RegisterClick(ctx context.Context, linkID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ShortLink{}).
			Where("id = ?", linkID).
			Updates(map[string]any{
				"click_count":     gorm.Expr("click_count + 1"),
				"last_clicked_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repositories.ErrNotFound
		}

		bucket := models.ClickBucket{LinkID: linkID, Day: models.BucketDay(at), Clicks: 1}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "link_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{
				"clicks": gorm.Expr("clicks + 1"),
			}),
		}).Create(&bucket).Error
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return repositories.ErrNotFound
		}
		r.logger.WithError(err).Errorf("failed to register click for link %d", linkID)
		return repositories.ErrUnknown
	}
	return nil
}

func (r *LinkRepo) CountLinks(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ShortLink{}).Count(&count).Error; err != nil {
		r.logger.WithError(err).Error("failed to count links")
		return 0, repositories.ErrUnknown
	}
	return count, nil
}

func (r *LinkRepo) SumClicks(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ShortLink{}).
		Select("COALESCE(SUM(click_count), 0)").
		Scan(&total).Error
	if err != nil {
		r.logger.WithError(err).Error("failed to sum clicks")
		return 0, repositories.ErrUnknown
	}
	return total, nil
}

// ClicksSince суммирует суточные корзины начиная с заданного дня
// включительно.
func (r *LinkRepo) ClicksSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ClickBucket{}).
		Where("day >= ?", models.BucketDay(since)).
		Select("COALESCE(SUM(clicks), 0)").
		Scan(&total).Error
	if err != nil {
		r.logger.WithError(err).Error("failed to sum clicks since")
		return 0, repositories.ErrUnknown
	}
	return total, nil
}

// TopByClicks горячие ссылки: по убыванию кликов, при равенстве — по
// самому свежему клику.
func (r *LinkRepo) TopByClicks(ctx context.Context, limit int) ([]models.ShortLink, error) {
	var links []models.ShortLink
	err := r.db.WithContext(ctx).
		Order("click_count DESC, last_clicked_at DESC").
		Limit(limit).
		Find(&links).Error
	if err != nil {
		r.logger.WithError(err).Error("failed to get top links")
		return nil, repositories.ErrUnknown
	}
	return links, nil
}

// DailyClicks корзины одной ссылки в интервале [from, to] по дням.
// Дни без кликов в выборку не попадают, нулями их заполняет сервис.
func (r *LinkRepo) DailyClicks(
	ctx context.Context,
	linkID uint,
	from, to time.Time,
) ([]models.DailyClicks, error) {
	var buckets []models.ClickBucket
	err := r.db.WithContext(ctx).
		Where("link_id = ? AND day >= ? AND day <= ?", linkID, models.BucketDay(from), models.BucketDay(to)).
		Order("day").
		Find(&buckets).Error
	if err != nil {
		r.logger.WithError(err).Errorf("failed to get daily clicks for link %d", linkID)
		return nil, repositories.ErrUnknown
	}

	result := make([]models.DailyClicks, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, models.DailyClicks{Day: b.Day, Clicks: b.Clicks})
	}
	return result, nil
}

// Search ищет по коду (точное совпадение или префикс) и по вхождению в
// destination, без учета регистра. Сортировка по кликам; точные
// совпадения кода наверх поднимает сервисный слой.
func (r *LinkRepo) Search(ctx context.Context, query string, limit int) ([]models.ShortLink, error) {
	q := strings.ToLower(query)
	var links []models.ShortLink
	err := r.db.WithContext(ctx).
		Where("LOWER(code) LIKE ? OR LOWER(destination) LIKE ?", q+"%", "%"+q+"%").
		Order("click_count DESC").
		Limit(limit).
		Find(&links).Error
	if err != nil {
		r.logger.WithError(err).Errorf("failed to search records by query %s", query)
		return nil, repositories.ErrUnknown
	}
	return links, nil
}
