// internal/utils/logger/config.go
package logger

import (
	"io"
	"os"
)

type Config struct {
	LogFile     string // пустая строка отключает файловый вывод
	MaxSize     int    // мегабайты
	MaxAge      int    // дни
	MaxBackups  int    // количество файлов
	Compress    bool   // сжимать ротированные файлы
	Development bool
	Level       string    // debug, info, warn, error; empty picks by Development
	Console     io.Writer // defaults to stdout
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "relay.log",
		MaxSize:     100,  // 100 MB
		MaxAge:      7,    // 7 дней
		MaxBackups:  3,    // 3 файла
		Compress:    true, // сжимать старые логи
		Development: false,
		Console:     os.Stdout,
	}
}
