package config

import (
	"flag"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypeInMemory DBType = "inMemory"
)

// Алфавит по умолчанию для генерации кодов: латиница в обоих регистрах
// и цифры, 62 символа.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type Config struct {
	// Адрес на котором запустится сервер
	ServerAddress string `env:"SERVER_ADDRESS"`
	// Базовый адрес результирующего сокращенного URL
	BaseURL *url.URL `env:"BASE_URL"`
	// Тип хранилища
	DBType DBType `env:"DB" envDefault:"sqlite"`
	// Путь до файла sqlite
	SQLitePath string `env:"SQLITE_PATH"`

	// Общий секрет админки. Он же пароль для входа.
	AdminSecret   string        `env:"ADMIN_PASSWORD"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"2h"`

	// Срок жизни ссылки если клиент не задал свой
	DefaultExpiry time.Duration `env:"DEFAULT_EXPIRY" envDefault:"72h"`
	CodeAlphabet  string        `env:"CODE_ALPHABET"`
	CodeLength    int           `env:"CODE_LENGTH" envDefault:"6"`

	// Лимиты создания ссылок: общий и отдельный для кастомных алиасов
	CreateLimit  int           `env:"RATE_LIMIT_CREATE" envDefault:"5"`
	CreateWindow time.Duration `env:"RATE_LIMIT_CREATE_WINDOW" envDefault:"60s"`
	AliasLimit   int           `env:"RATE_LIMIT_ALIAS" envDefault:"3"`
	AliasWindow  time.Duration `env:"RATE_LIMIT_ALIAS_WINDOW" envDefault:"1h"`

	// Очередь кликов
	ClickBuffer  int `env:"CLICK_BUFFER" envDefault:"1024"`
	ClickWorkers int `env:"CLICK_WORKERS" envDefault:"4"`

	Logger *logrus.Logger
}

func LoadConfig() (*Config, error) {
	// .env если есть; его отсутствие не ошибка.
	_ = godotenv.Load()

	var flagsConfig, envConfig Config
	logger := initLogger()

	if err := env.Parse(&envConfig); err != nil {
		return nil, errors.Wrapf(err, "parse ENV config error")
	}

	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.CodeAlphabet == "" {
		conf.CodeAlphabet = DefaultAlphabet
	}
	if conf.SQLitePath == "" {
		conf.SQLitePath = "shortlink.db"
	}
	conf.Logger = logger
	return conf, nil
}

// MustLoadConfig вызывает панику если конфигурацию собрать не удалось.
func MustLoadConfig() *Config {
	conf, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return conf
}

// loadFlags парсит флаги командной строки.
func loadFlags(flagsConfig *Config) {
	flag.StringVar(&flagsConfig.ServerAddress, "a", "localhost:8080", "Адрес сервера")
	flag.StringVar(&flagsConfig.SQLitePath, "f", "", "Путь до файла sqlite")

	bDesc := "Базовый адрес результирующего сокращенного URL (по умолчанию Scheme://Host запущенного сервера)"
	flag.Func("b", bDesc, func(rawURL string) error {
		parsedURL, err := url.ParseRequestURI(rawURL)
		if err != nil {
			return errors.Wrap(err, "failed to parse base url")
		}

		// создаем новый инстанс, отсекая тем самым Path и Query если они заданы в базовом урле.
		flagsConfig.BaseURL = &url.URL{
			Scheme: parsedURL.Scheme,
			Host:   parsedURL.Host,
		}
		return nil
	})

	flag.Parse()
}

// mergeConfig сливает структуры для env и флагов. ENV имеет приоритет.
func mergeConfig(envConfig, flagsConfig *Config) *Config {
	merged := *envConfig
	merged.ServerAddress = defaultIfBlank(envConfig.ServerAddress, flagsConfig.ServerAddress)
	merged.BaseURL = defaultIfBlank(envConfig.BaseURL, flagsConfig.BaseURL)
	merged.DBType = defaultIfBlank(envConfig.DBType, flagsConfig.DBType)
	merged.SQLitePath = defaultIfBlank(envConfig.SQLitePath, flagsConfig.SQLitePath)
	return &merged
}

func defaultIfBlank[T any](value T, defaultValue T) T {
	if v, ok := any(value).(string); ok && v == "" {
		return defaultValue
	}
	if v, ok := any(value).(DBType); ok && v == "" {
		return defaultValue
	}
	if v, ok := any(value).(*url.URL); ok && v == nil {
		return defaultValue
	}
	return value
}
