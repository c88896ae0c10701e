// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/maarifa/agentcore/pkg/errors"
)

// MaxInputChars is the hard ceiling on total normalized input. It is
// checked ahead of every other policy check and cannot be relaxed by
// configuration. Input exactly at the ceiling is accepted.
const MaxInputChars = 128000

// SanitizeCeiling hard-truncates sanitized input, independent of the
// per-role message limits and of MaxInputChars.
const SanitizeCeiling = 2000

// SafetyCategory labels a class of screened content.
type SafetyCategory string

const (
	CategoryPromptInjection SafetyCategory = "prompt_injection"
	CategoryDataExtraction  SafetyCategory = "data_extraction"
	CategorySQLInjection    SafetyCategory = "sql_injection"
)

// SafetyResult reports whether text passed the safety screen, with every
// matched category listed, not just the first.
type SafetyResult struct {
	Allowed           bool
	FlaggedCategories []SafetyCategory
}

var categoryPatterns = map[SafetyCategory][]*regexp.Regexp{
	CategoryPromptInjection: compileAll(
		// Instruction-override phrasings.
		`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,
		`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,
		`(?i)forget\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,
		`تجاهل\s+(كل\s+)?التعليمات\s+السابقة`,
		// Role-reassignment phrasings.
		`(?i)you\s+are\s+now\s+(a|an)\s+`,
		`(?i)pretend\s+(you\s+are|to\s+be)\s+`,
		`(?i)act\s+as\s+(a|an|if)\s+`,
		`(?i)(developer|debug|sudo|admin)\s+mode`,
		// Delimiter-injection tokens.
		`(?i)<\|[^|]*\|>`,
		`(?i)\[INST\]`,
		`(?i)<<SYS>>`,
		`(?i)^\s*system\s*:`,
	),
	CategoryDataExtraction: compileAll(
		`(?i)(dump|export|extract)\s+(all\s+)?(the\s+)?(data|database|records|users|tables)`,
		`(?i)(list|show|give)\s+me\s+all\s+(the\s+)?(users|accounts|records|emails|passwords)`,
		`(?i)every\s+(user|record|row)\s+in\s+the\s+(database|system|table)`,
	),
	CategorySQLInjection: compileAll(
		`(?i);\s*(drop|delete|truncate|alter|insert|update)\b`,
		`(?i)union\s+(all\s+)?select\b`,
		`(?i)'\s*or\s+'?1'?\s*=\s*'?1`,
		`(?i)--\s*$`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// CheckSafety screens text against every category. Any match blocks, and
// all matched categories are reported.
func CheckSafety(text string) SafetyResult {
	var flagged []SafetyCategory
	for _, category := range []SafetyCategory{CategoryPromptInjection, CategoryDataExtraction, CategorySQLInjection} {
		for _, re := range categoryPatterns[category] {
			if re.MatchString(text) {
				flagged = append(flagged, category)
				break
			}
		}
	}
	return SafetyResult{Allowed: len(flagged) == 0, FlaggedCategories: flagged}
}

var (
	delimiterTokens = regexp.MustCompile(`(?i)(<\|[^|]*\|>|\[/?INST\]|<</?SYS>>)`)
	rolePrefix      = regexp.MustCompile(`(?im)^\s*(system|assistant|tool)\s*:\s*`)
)

// SanitizeInput strips injection delimiter tokens and role-prefix tokens,
// then hard-truncates to SanitizeCeiling. It runs before safety results
// are trusted for downstream use.
func SanitizeInput(text string) string {
	cleaned := delimiterTokens.ReplaceAllString(text, "")
	cleaned = rolePrefix.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if utf8.RuneCountInString(cleaned) > SanitizeCeiling {
		runes := []rune(cleaned)
		cleaned = string(runes[:SanitizeCeiling])
	}
	return cleaned
}

// CheckInputSize rejects input over MaxInputChars. It runs before any
// normalization-dependent processing and counts characters, not bytes, so
// Arabic text is not penalized for its encoding.
func CheckInputSize(text string) error {
	if n := utf8.RuneCountInString(text); n > MaxInputChars {
		return errors.Newf(errors.CodeInvalidInput, "input is %d characters, limit is %d", n, MaxInputChars)
	}
	return nil
}

// educationalKeywords is a coarse topical lexicon; matching any term marks
// a message as educationally relevant.
var educationalKeywords = []string{
	// English
	"course", "study", "learn", "lesson", "homework", "exam", "quiz",
	"grade", "teacher", "student", "math", "science", "history", "grammar",
	"assignment", "curriculum", "lecture", "school", "university",
	// Arabic
	"دورة", "دورات", "دراسة", "مذاكرة", "درس", "دروس", "واجب", "امتحان",
	"اختبار", "معلم", "طالب", "رياضيات", "علوم", "تاريخ", "قواعد",
	"منهج", "محاضرة", "مدرسة", "جامعة", "تعلم", "شرح", "مساعدة",
}

// IsEducationallyRelevant is a lightweight heuristic gating whether a
// message should enter the domain pipeline at all. Questions are given
// the benefit of the doubt.
func IsEducationallyRelevant(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range educationalKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return strings.ContainsAny(text, "?؟")
}
