package services

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// aliasPattern правила синтаксиса кастомного алиаса: латиница, цифры и
// дефис, длина 3-30.
var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,30}$`)

// reservedAliases пути роутинга и служебные файлы, которые нельзя
// занимать под алиасы. Сравнение без учета регистра.
var reservedAliases = map[string]struct{}{
	"api":         {},
	"admin":       {},
	"login":       {},
	"logout":      {},
	"signup":      {},
	"register":    {},
	"dashboard":   {},
	"settings":    {},
	"ping":        {},
	"metrics":     {},
	"favicon.ico": {},
	"robots.txt":  {},
}

// validateAlias проверяет алиас по правилам в порядке: длина, алфавит,
// зарезервированные слова. Текст ошибки описывает нарушенное правило,
// но наружу сервис отдает только обобщенный ErrInvalidAlias.
func validateAlias(alias string) error {
	if len(alias) < 3 || len(alias) > 30 {
		return errors.Wrapf(ErrInvalidAlias, "alias length %d is out of range [3,30]", len(alias))
	}
	if !aliasPattern.MatchString(alias) {
		return errors.Wrap(ErrInvalidAlias, "alias contains characters outside [A-Za-z0-9-]")
	}
	if _, ok := reservedAliases[strings.ToLower(alias)]; ok {
		return errors.Wrapf(ErrInvalidAlias, "alias `%s` is reserved", alias)
	}
	return nil
}
