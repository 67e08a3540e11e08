package services

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

// CodeGenerator источник случайных кандидатов короткого кода.
// Уникальность не гарантирует: коллизии разрешает цикл ретраев
// аллокатора поверх уникального индекса в БД.
type CodeGenerator struct {
	alphabet string
	length   int
}

func NewCodeGenerator(alphabet string, length int) (*CodeGenerator, error) {
	if len(alphabet) < 2 {
		return nil, errors.New("alphabet must contain at least 2 characters")
	}
	if length <= 0 {
		return nil, errors.New("code length must be positive")
	}
	return &CodeGenerator{alphabet: alphabet, length: length}, nil
}

// Generate возвращает код заданной длины, равномерно выбирая символы
// алфавита.
func (g *CodeGenerator) Generate() (string, error) {
	result := make([]byte, g.length)
	max := big.NewInt(int64(len(g.alphabet)))
	for i := range result {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate random number")
		}
		result[i] = g.alphabet[num.Int64()]
	}
	return string(result), nil
}

// Length длина генерируемых кодов.
func (g *CodeGenerator) Length() int {
	return g.length
}
