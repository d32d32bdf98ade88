package cache

import (
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
)

// ReportPrefix общий префикс снимков отчётов.
const ReportPrefix = "report:"

// PlanKey ключ карточки тарифа.
func PlanKey(id int64) string {
	return fmt.Sprintf("plan:%d", id)
}

// ReportKey ключ снимка отчёта; parts различают параметры запроса.
func ReportKey(name string, parts ...any) string {
	key := ReportPrefix + name
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	return key
}

// PrefixInvalidator удаляет группу ключей по префиксу.
type PrefixInvalidator interface {
	InvalidatePrefix(prefix string) error
}

// InvalidateReports сбрасывает все снимки отчётов. Ошибка кэша только логируется.
func InvalidateReports(c PrefixInvalidator, log *slog.Logger) {
	if c == nil {
		return
	}
	if err := c.InvalidatePrefix(ReportPrefix); err != nil {
		log.Warn("failed to invalidate report cache", sl.Err(err))
	}
}
