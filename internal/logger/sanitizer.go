package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Sanitizer masks secrets and personal paths in log output.
//
// SanitizeArgs only masks values whose key looks sensitive (token, secret, ...).
// A secret embedded in the value of an innocuous key is only caught if one of
// the message patterns matches it.
type Sanitizer struct {
	mu       sync.RWMutex
	patterns []SanitizeRule
}

// SanitizeRule is a single replacement rule
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewSanitizer creates a sanitizer with the default rules
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultSanitizeRules(),
	}
}

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"token", "secret", "api_key", "apikey",
	"credential", "auth",
}

func defaultSanitizeRules() []SanitizeRule {
	return []SanitizeRule{
		{regexp.MustCompile(`(?i)password=\S+`), "password=***"},
		{regexp.MustCompile(`(?i)token=\S+`), "token=***"},
		{regexp.MustCompile(`(?i)client_secret=\S+`), "client_secret=***"},
		{regexp.MustCompile(`(?i)bearer\s+\S+`), "bearer ***"},
		{regexp.MustCompile(`(?i)api[_-]?key=\S+`), "api_key=***"},

		// Google OAuth access tokens and AWS access key IDs
		{regexp.MustCompile(`ya29\.[0-9A-Za-z_\-]+`), "ya29.***"},
		{regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`), "$1***"},

		// Windows user paths (any drive, and UNC)
		{regexp.MustCompile(`(?i)[A-Z]:\\Users\\[^\\]+`), "***:\\Users\\***"},
		{regexp.MustCompile(`(?i)\\\\[^\\]+\\[^\\]+\\Users\\[^\\]+`), "\\\\***\\***\\Users\\***"},

		// Unix home directories
		{regexp.MustCompile(`/home/[^/]+`), "/home/***"},
		{regexp.MustCompile(`/Users/[^/]+`), "/Users/***"},

		{regexp.MustCompile(`([a-zA-Z0-9._%+-]{1,3})[a-zA-Z0-9._%+-]*@`), "$1***@"},
	}
}

// Sanitize applies all patterns to input
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := input
	for _, rule := range s.patterns {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// SanitizeArgs masks sensitive key-value pairs and applies the patterns to
// remaining string values
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}

		switch v := result[i+1].(type) {
		case string:
			if isSensitiveKey(key) {
				result[i+1] = maskValue(v)
			} else {
				result[i+1] = s.Sanitize(v)
			}
		case error:
			if isSensitiveKey(key) {
				result[i+1] = maskValue(v.Error())
			} else {
				result[i+1] = s.Sanitize(v.Error())
			}
		}
	}

	return result
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sk := range sensitiveKeys {
		if strings.Contains(lowerKey, sk) {
			return true
		}
	}
	return false
}

// maskValue keeps the first and last character of long values
func maskValue(value string) string {
	if len(value) <= 2 {
		return "***"
	}
	if len(value) <= 8 {
		return fmt.Sprintf("%s***", value[:1])
	}
	return fmt.Sprintf("%s***%s", value[:1], value[len(value)-1:])
}

// AddRule adds a custom replacement rule
func (s *Sanitizer) AddRule(pattern string, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, SanitizeRule{
		Pattern:     re,
		Replacement: replacement,
	})
	return nil
}
