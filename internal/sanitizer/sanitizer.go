// Package sanitizer маскирует чувствительные данные перед записью в логи:
// секреты, cookie, пароли, номера карт, email и телефоны из профиля кандидата.
package sanitizer

import (
	"regexp"
	"strings"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Порядок важен: секреты маскируются раньше общих правил для email и телефонов.
var defaultRules = []rule{
	// пароли
	{regexp.MustCompile(`(?i)(password|passwd|pwd|пароль)(\s*[:=]\s*)["']?[^"'\s,}]{3,}["']?`), `${1}${2}[FILTERED]`},
	// токены и ключи
	{regexp.MustCompile(`(?i)(api[_-]?key|api[_-]?secret|api[_-]?token|secret[_-]?key|access[_-]?token|token)(["']?\s*[:=]\s*["']?)[a-zA-Z0-9_\-.]{16,}`), `${1}${2}[FILTERED]`},
	{regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-.]{16,}`), `${1}[FILTERED]`},
	{regexp.MustCompile(`\b(sk|pk|tvly)-[a-zA-Z0-9_\-]{16,}`), `[FILTERED]`},
	// cookie и сессии (li_at у LinkedIn)
	{regexp.MustCompile(`(?i)(set-cookie|cookie|li_at|jsessionid|session[_-]?id)(["']?\s*[:=]\s*["']?)[^"'\n;]{10,}`), `${1}${2}[FILTERED]`},
	// номера карт
	{regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), `[FILTERED]`},
	{regexp.MustCompile(`(?i)(cvv2?|cvc2?)(\s*[:=]\s*)["']?\d{3,4}["']?`), `${1}${2}[FILTERED]`},
	// email
	{regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`), `[FILTERED_EMAIL]`},
	// телефоны: только международный формат или с явной меткой, чтобы не трогать даты и зарплаты
	{regexp.MustCompile(`\+\d{1,3}[\s.-]?\(?\d{2,4}\)?[\s.-]?\d{3}[\s.-]?\d{2,4}(?:[\s.-]?\d{2})?`), `[FILTERED_PHONE]`},
	{regexp.MustCompile(`(?i)(phone|mobile|телефон|тел\.?)(["']?\s*[:=]\s*["']?)[+\d\s\-()]{7,}\d`), `${1}${2}[FILTERED_PHONE]`},
}

type DataSanitizer struct {
	rules []rule
}

func New() *DataSanitizer {
	return &DataSanitizer{rules: defaultRules}
}

func (s *DataSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, r := range s.rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}

	return result
}

// SanitizeArgs маскирует значения аргументов вызова инструмента.
// Ключи с чувствительными именами заменяются целиком.
func (s *DataSanitizer) SanitizeArgs(args map[string]any) map[string]any {
	if len(args) == 0 {
		return args
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveKey(k) {
			out[k] = "[FILTERED]"
			continue
		}
		if str, ok := v.(string); ok {
			out[k] = s.Sanitize(str)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)

	sensitiveKeywords := []string{
		"password", "пароль", "token", "secret", "api_key", "apikey",
		"cookie", "session", "li_at",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return false
}
