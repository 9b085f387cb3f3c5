package utils

// Minimal server-side i18n for fixed keys.
// UI strings should live in the frontend; server provides only essentials.

// SupportedLocales lists the locales with server-side messages.
var SupportedLocales = []string{"en", "zh"}

var translations = map[string]map[string]string{
	"en": {
		"health.ok":             "ok",
		"validation.required":   "This question is required",
		"submission.rejected":   "Some required questions are unanswered",
		"survey.not_found":      "Survey not found",
		"request.invalid_body":  "Request body is not valid JSON",
		"export.rate_limited":   "Exports are limited, please retry shortly",
		"auth.unauthorized":     "Authentication required",
		"analytics.no_response": "No responses yet",
	},
	"zh": {
		"health.ok":             "好的",
		"validation.required":   "此题为必答题",
		"submission.rejected":   "有必答题尚未作答",
		"survey.not_found":      "问卷不存在",
		"request.invalid_body":  "请求体不是有效的 JSON",
		"export.rate_limited":   "导出过于频繁，请稍后再试",
		"auth.unauthorized":     "需要登录",
		"analytics.no_response": "暂无回答",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
