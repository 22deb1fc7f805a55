package utils

import (
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor bounds and sanitizes attacker-controlled text before it is
// handed to regex scanning or an external classifier
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{logger: logger}
}

// TruncateText safely truncates text to maxSize bytes, keeping the result
// valid UTF-8. A maxSize of zero or less disables the limit.
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	if tp.logger != nil {
		tp.logger.Debug("Text truncated",
			zap.Int("original_size", len(text)),
			zap.Int("truncated_size", len(truncated)))
	}

	return truncated
}

// SanitizeUTF8 replaces invalid UTF-8 sequences so downstream matching
// never sees broken runes
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	return string(result)
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}
