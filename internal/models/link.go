package models

import "time"

// Ограничения на короткий код. Кастомные алиасы и сгенерированные коды
// живут в одной колонке и подчиняются одним и тем же правилам.
const (
	MinCodeLength = 3
	MaxCodeLength = 30
)

// ShortLink структура модели хранения короткой ссылки.
// Код уникален на уровне БД и никогда не переиспользуется: истекшие
// записи остаются в таблице ради истории кликов.
type ShortLink struct {
	ID            uint       `json:"ID"`
	CreatedAt     time.Time  `json:"createdAt"`
	Code          string     `json:"code" gorm:"uniqueIndex;size:30;not null"`
	Destination   string     `json:"destination" gorm:"size:2048;not null;index"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	ClickCount    uint64     `json:"clickCount" gorm:"not null;default:0"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
}

// Expired сообщает истекла ли ссылка к моменту now. Ссылка без
// expiresAt не истекает никогда.
func (l *ShortLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// ClickBucket агрегат кликов по ссылке за календарные сутки (UTC).
// Day всегда полночь UTC; пара (LinkID, Day) уникальна.
type ClickBucket struct {
	ID     uint      `json:"ID"`
	LinkID uint      `json:"linkID" gorm:"uniqueIndex:idx_click_buckets_link_day;not null"`
	Day    time.Time `json:"day" gorm:"uniqueIndex:idx_click_buckets_link_day;not null"`
	Clicks uint64    `json:"clicks" gorm:"not null;default:0"`
}

// DailyClicks одна точка суточной серии кликов.
type DailyClicks struct {
	Day    time.Time `json:"day"`
	Clicks uint64    `json:"clicks"`
}

// BucketDay нормализует момент времени до начала календарных суток UTC.
func BucketDay(at time.Time) time.Time {
	y, m, d := at.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
