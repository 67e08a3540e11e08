// Package memory примитивное key/value хранилище в памяти.
// Значения сериализуются в json, поэтому наружу всегда отдается копия,
// а не указатель во внутреннее состояние.
package memory

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type MStorage struct {
	data map[string][]byte
	m    sync.RWMutex
}

func NewMStorage() *MStorage {
	return &MStorage{
		data: make(map[string][]byte),
	}
}

func (m *MStorage) Len() int {
	m.m.RLock()
	defer m.m.RUnlock()

	return len(m.data)
}

func (m *MStorage) isExistLocked(key string) bool {
	_, ok := m.data[key]
	return ok
}

func Get[T any](key string, m *MStorage) (*T, error) {
	m.m.RLock()
	defer m.m.RUnlock()

	val, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	var result T
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal json by key `%s`", key)
	}
	return &result, nil
}

// Set сохраняет новую пару ключ/значение. Ключ обязан быть уникальным,
// иначе вернется ошибка ErrDuplicateKey.
func Set[T any](key string, val *T, m *MStorage) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.isExistLocked(key) {
		return ErrDuplicateKey
	}

	bytes, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal json for object `%+v`", val)
	}
	m.data[key] = bytes
	return nil
}

// Update перезаписывает существующий ключ. Отсутствие ключа — ошибка,
// чтобы апдейт не превращался молча во вставку.
func Update[T any](key string, val *T, m *MStorage) error {
	m.m.Lock()
	defer m.m.Unlock()

	if !m.isExistLocked(key) {
		return ErrNotFound
	}

	bytes, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal json for object `%+v`", val)
	}
	m.data[key] = bytes
	return nil
}

// All возвращает копии всех значений. Порядок не определен.
func All[T any](m *MStorage) ([]T, error) {
	m.m.RLock()
	defer m.m.RUnlock()

	var result = make([]T, 0, len(m.data))

	for key, bytes := range m.data {
		var val T
		if err := json.Unmarshal(bytes, &val); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal json by key `%s`", key)
		}
		result = append(result, val)
	}
	return result, nil
}
