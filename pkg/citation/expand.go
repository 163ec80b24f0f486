package citation

import (
	"regexp"
	"strconv"
	"strings"
)

// Range expansion limits. A range wider than this is kept as literal text.
const (
	maxNumericSpan = 400
	maxLetterSpan  = 40
)

// russianAlphabet is the letter order used for subpoint letter ranges.
var russianAlphabet = []rune("абвгдеёжзийклмнопрстуфхцчшщъыьэюя")

var alphabetIndex = func() map[rune]int {
	index := make(map[rune]int, len(russianAlphabet))
	for i, r := range russianAlphabet {
		index[r] = i
	}
	return index
}()

var (
	connectivePattern = regexp.MustCompile(`(?i)[\s\p{Zs}]+(?:или|и)[\s\p{Zs}]+`)
	numericRangeItem  = regexp.MustCompile(`^(\d+)-(\d+)$`)
	letterRangeItem   = regexp.MustCompile(`^([А-Яа-яЁё])-([А-Яа-яЁё])$`)
)

// ExpandList turns a list expression such as "1, 3-5 и а-в" into discrete
// items. Bounded numeric and letter ranges are expanded; everything else is
// kept as written. The result is never empty.
func ExpandList(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" {
		return []string{""}
	}

	list = connectivePattern.ReplaceAllString(list, ",")
	var items []string
	for _, raw := range strings.Split(list, ",") {
		item := strings.TrimSpace(dashReplacer.Replace(strings.TrimSpace(raw)))
		if item == "" {
			continue
		}
		if expanded, ok := expandNumericRange(item); ok {
			items = append(items, expanded...)
			continue
		}
		if expanded, ok := expandLetterRange(item); ok {
			items = append(items, expanded...)
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return []string{""}
	}
	return items
}

func expandNumericRange(item string) ([]string, bool) {
	m := numericRangeItem.FindStringSubmatch(item)
	if m == nil {
		return nil, false
	}
	start, errStart := strconv.Atoi(m[1])
	end, errEnd := strconv.Atoi(m[2])
	if errStart != nil || errEnd != nil {
		return nil, false
	}
	if start > end || end-start > maxNumericSpan {
		return nil, false
	}
	out := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, strconv.Itoa(n))
	}
	return out, true
}

func expandLetterRange(item string) ([]string, bool) {
	m := letterRangeItem.FindStringSubmatch(item)
	if m == nil {
		return nil, false
	}
	from, okFrom := alphabetIndex[[]rune(foldCase(m[1]))[0]]
	to, okTo := alphabetIndex[[]rune(foldCase(m[2]))[0]]
	if !okFrom || !okTo || from > to || to-from > maxLetterSpan {
		return nil, false
	}
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, string(russianAlphabet[i]))
	}
	return out, true
}
