// Package month содержит календарную арифметику для абонементов и отчётов.
//
// Даты абонемента хранятся как календарные дни без времени: функции пакета
// работают с полуночью UTC, а часовой пояс клуба учитывается только при
// вычислении "сегодня" и границ суток для отметок времени.
package month

import (
	"time"
)

// Layout формат календарной даты в API и отчётах.
const Layout = "2006-01-02"

// Bucket одна корзина временного ряда: включительный интервал дат [From, To].
type Bucket struct {
	Label string
	From  time.Time
	To    time.Time
}

// Day отбрасывает время и возвращает календарный день t как полночь UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today возвращает текущий календарный день в часовом поясе loc.
func Today(loc *time.Location) time.Time {
	return Day(time.Now().In(loc))
}

// Midnight возвращает момент начала календарного дня d в часовом поясе loc.
func Midnight(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// AddDays сдвигает дату на n дней.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// FirstOfMonth первый день месяца даты d.
func FirstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// LastOfMonth последний день месяца: первое число следующего месяца минус один день.
func LastOfMonth(d time.Time) time.Time {
	return FirstOfMonth(d).AddDate(0, 1, -1)
}

// TrailingMonths возвращает n календарных месяцев, последний из которых содержит today.
// Корзины упорядочены от старой к новой.
func TrailingMonths(today time.Time, n int) []Bucket {
	if n <= 0 {
		return nil
	}
	current := FirstOfMonth(today)
	buckets := make([]Bucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		first := current.AddDate(0, -i, 0)
		buckets = append(buckets, Bucket{
			Label: first.Format("2006-01"),
			From:  first,
			To:    LastOfMonth(first),
		})
	}
	return buckets
}

// TrailingDays возвращает n дней, заканчивающихся today включительно.
func TrailingDays(today time.Time, n int) []Bucket {
	if n <= 0 {
		return nil
	}
	day := Day(today)
	buckets := make([]Bucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		d := day.AddDate(0, 0, -i)
		buckets = append(buckets, Bucket{
			Label: d.Format(Layout),
			From:  d,
			To:    d,
		})
	}
	return buckets
}

// Age полное число лет на дату today.
func Age(birth, today time.Time) int {
	years := today.Year() - birth.Year()
	if today.Month() < birth.Month() ||
		(today.Month() == birth.Month() && today.Day() < birth.Day()) {
		years--
	}
	return years
}

// Parse разбирает дату в формате Layout.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// Span переводит включительный интервал дней [from, to] в полуинтервал
// моментов времени [начало from, начало to+1) в часовом поясе loc.
func Span(from, to time.Time, loc *time.Location) (time.Time, time.Time) {
	return Midnight(from, loc), Midnight(AddDays(to, 1), loc)
}
