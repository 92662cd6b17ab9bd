package shoe

import (
	"fmt"
	"strings"

	"ShoeKeeper/internal/common"
)

// Filter — критерий отображения: All или конкретная категория.
type Filter string

// All отключает фильтрацию.
const All Filter = "All"

// ParseFilter принимает "All" или имя категории без учёта регистра. Пустая строка — All.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(All)) {
		return All, nil
	}
	c, err := ParseCategory(s)
	if err != nil {
		return "", fmt.Errorf("%w: unknown filter %q", common.ErrValidation, s)
	}
	return Filter(c), nil
}

// Project возвращает подпоследовательность записей, подходящих под критерий, сохраняя порядок.
// Входной слайс не изменяется.
func Project(records []Record, f Filter) []Record {
	out := make([]Record, 0, len(records))
	if f == All || f == "" {
		return append(out, records...)
	}
	for _, r := range records {
		if Filter(r.Category) == f {
			out = append(out, r)
		}
	}
	return out
}
