package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log доступен сразу; Init переопределяет уровень и формат.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Discard глушит вывод, удобно в тестах.
func Discard() {
	Log.SetOutput(io.Discard)
}

// WithComponent возвращает запись с полем component.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
