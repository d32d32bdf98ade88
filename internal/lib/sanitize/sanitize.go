// Package sanitize очищает свободный текст от HTML перед сохранением.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// maxPasses ограничивает число проходов для многократно экранированного ввода.
const maxPasses = 8

var policy = bluemonday.StrictPolicy()

// Text удаляет разметку и крайние пробелы. Текст хранится не как HTML, поэтому
// сущности раскрываются; результат снова проходит через политику, пока не
// перестанет меняться, иначе &lt;script&gt; превратился бы в живой тег.
func Text(s string) string {
	cur := s
	for range maxPasses {
		next := html.UnescapeString(policy.Sanitize(cur))
		if next == cur {
			return strings.TrimSpace(cur)
		}
		cur = next
	}
	return ""
}

// Ptr применяет Text к необязательному полю.
func Ptr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	return &v
}

// Required очищает обязательное поле field. Если после очистки текста
// не осталось, возвращает models.ErrValidation.
func Required(field, s string) (string, error) {
	v := Text(s)
	if v == "" {
		return "", models.Errorf(models.ErrValidation, "field %s must contain text", field)
	}
	return v, nil
}

// RequiredPtr как Required, но для необязательного поля обновления:
// nil пропускается, переданное значение не может стать пустым.
func RequiredPtr(field string, s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v, err := Required(field, *s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
