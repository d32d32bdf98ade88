// Package sl содержит вспомогательные функции для работы с логгером slog:
// создание логгера процесса и единообразные поля лога.
package sl

import (
	"io"
	"log/slog"
	"os"
)

const envLocal = "local"

// Setup создаёт логгер процесса. В окружении local пишутся отладочные
// сообщения, в остальных только Info и выше.
func Setup(env string) *slog.Logger {
	return New(os.Stdout, env)
}

// New логгер с текстовым выводом в w.
func New(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == envLocal {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to send email", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
