// Package tokens подписанные сессионные токены админки.
//
// Формат токена: "<unixMillis>.<hexHMAC>", где подпись — HMAC-SHA256 от
// временной метки на общем секрете. Токен живет SessionMaxAge от
// момента выпуска, не продлевается и не отзывается: утекший токен
// действует до естественного истечения.
package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSessionMaxAge срок жизни сессии по умолчанию (2 часа).
const DefaultSessionMaxAge = 2 * time.Hour

// NewSessionToken выпускает токен с временной меткой issuedAt.
func NewSessionToken(secret []byte, issuedAt time.Time) string {
	timestamp := strconv.FormatInt(issuedAt.UnixMilli(), 10)
	return fmt.Sprintf("%s.%s", timestamp, sign(secret, timestamp))
}

// VerifySessionToken проверяет подпись и возраст токена. Сравнение
// подписи константное по времени. Токены из будущего отклоняются.
func VerifySessionToken(token string, secret []byte, maxAge time.Duration, now time.Time) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	issuedMillis, parseErr := strconv.ParseInt(parts[0], 10, 64)
	if parseErr != nil {
		return false
	}

	age := now.Sub(time.UnixMilli(issuedMillis))
	if age < 0 || age > maxAge {
		return false
	}

	signature, hexErr := hex.DecodeString(parts[1])
	if hexErr != nil {
		return false
	}
	expected, _ := hex.DecodeString(sign(secret, parts[0]))
	return hmac.Equal(signature, expected)
}

func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
