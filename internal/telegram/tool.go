package telegram

import "strings"

// MarkdownV2 需要转义的特殊字符
const markdownV2Special = "\\_*[]()~`>#+-=|{}.!"

// escapeMarkdownV2 用于转义 MarkdownV2 格式中的特殊字符
func escapeMarkdownV2(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
