// Пакет textnorm — нормализация строк для поиска и сравнения имён:
// диакритика удаляется, регистр приводится к верхнему, пробелы по краям
// обрезаются. Функции чистые и никогда не возвращают ошибку.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks раскладывает строку (NFD), удаляет combining marks и
// собирает обратно (NFC).
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// transform.String на валидном UTF-8 не падает; невалидные байты
		// оставляем как есть
		return s
	}
	return out
}

// Normalize возвращает нормализованную форму строки.
// Normalize(Normalize(s)) == Normalize(s) для любой s.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = stripMarks(s)
	s = strings.ToUpper(s)
	// Верхний регистр некоторых символов раскладывается в combining marks
	s = stripMarks(s)
	return strings.TrimSpace(s)
}

// Equal сравнивает строки без учёта регистра, диакритики и краевых пробелов.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Contains сообщает, содержит ли haystack подстроку needle после нормализации
// обеих строк. Пустой needle совпадает с любой строкой.
func Contains(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Normalize(haystack), n)
}
