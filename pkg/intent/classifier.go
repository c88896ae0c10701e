// SPDX-License-Identifier: Apache-2.0

package intent

import "strings"

// Intent is a classified category of user request.
type Intent string

const (
	IntentUnknown          Intent = "unknown"
	IntentGreeting         Intent = "greeting"
	IntentStudyPlan        Intent = "study_plan"
	IntentCourseInquiry    Intent = "course_inquiry"
	IntentGeneralEducation Intent = "general_education"
	IntentDamageAssessment Intent = "damage_assessment"
	IntentAdminReports     Intent = "admin_reports"
)

// FeatureFlags gates entire intent families. A disabled family is
// invisible at routing time: input that would match it collapses to
// IntentUnknown instead of degrading to another family.
type FeatureFlags struct {
	DamageAssessment bool
}

// Result is the classification outcome; purely derived, never stored.
type Result struct {
	Intent          Intent
	Confidence      float64
	MatchedKeywords []string
}

// family is one scored keyword set. Phrase matches outrank bare keyword
// matches in any family, and families are tried in priority order.
type family struct {
	intent   Intent
	phrases  []string
	keywords []string
	flagged  bool // requires the family's feature flag
}

// families in priority order: an explicit planning phrase outranks the
// general-education topics it inevitably also contains.
var families = []family{
	{
		intent:  IntentDamageAssessment,
		flagged: true,
		phrases: []string{"تقييم الأضرار", "كشف الضرر", "damage assessment", "assess the damage"},
		keywords: []string{
			"أضرار", "ضرر", "تلف", "damage",
		},
	},
	{
		intent:  IntentAdminReports,
		phrases: []string{"تقرير الاستخدام", "usage report", "إحصائيات المنصة"},
		keywords: []string{
			"تقرير", "إحصائيات", "analytics",
		},
	},
	{
		intent:  IntentStudyPlan,
		phrases: []string{"خطة مذاكرة", "خطة دراسة", "جدول مذاكرة", "study plan", "study schedule"},
		keywords: []string{
			"خطة", "جدول", "plan",
		},
	},
	{
		intent:  IntentCourseInquiry,
		phrases: []string{"الدورات المتاحة", "الكورسات المتاحة", "available courses"},
		keywords: []string{
			"دورة", "دورات", "كورس", "course", "courses", "تسجيل",
		},
	},
	{
		intent:  IntentGreeting,
		phrases: []string{"السلام عليكم", "صباح الخير", "مساء الخير", "good morning"},
		keywords: []string{
			"مرحبا", "أهلا", "هلا", "hello", "hi", "hey",
		},
	},
	{
		intent:  IntentGeneralEducation,
		phrases: []string{"اشرح لي", "ساعدني في", "explain to me", "help me with"},
		keywords: []string{
			"اشرح", "شرح", "حل", "واجب", "مساعدة", "امتحان", "اختبار",
			"رياضيات", "علوم", "تاريخ", "قواعد", "كيمياء", "فيزياء",
			"explain", "solve", "homework", "exam", "math", "science", "history",
		},
	},
}

// Classifier scores normalized input against the family tables.
type Classifier struct {
	flags    FeatureFlags
	families []family
}

// NewClassifier builds a classifier. Keyword tables are normalized with
// the same pass as inputs so folded forms compare equal.
func NewClassifier(flags FeatureFlags) *Classifier {
	normalized := make([]family, len(families))
	for i, f := range families {
		nf := family{intent: f.intent, flagged: f.flagged}
		for _, p := range f.phrases {
			nf.phrases = append(nf.phrases, Normalize(p))
		}
		for _, k := range f.keywords {
			nf.keywords = append(nf.keywords, Normalize(k))
		}
		normalized[i] = nf
	}
	return &Classifier{flags: flags, families: normalized}
}

// AddKeywords extends a family's tables, normalizing the additions.
// Used by the lexicon overlay.
func (c *Classifier) AddKeywords(intent Intent, phrases, keywords []string) {
	for i := range c.families {
		if c.families[i].intent != intent {
			continue
		}
		for _, p := range phrases {
			c.families[i].phrases = append(c.families[i].phrases, Normalize(p))
		}
		for _, k := range keywords {
			c.families[i].keywords = append(c.families[i].keywords, Normalize(k))
		}
		return
	}
}

// DetectIntent normalizes text and returns the highest-priority family
// with a match. A phrase match wins its family immediately with high
// confidence; keyword matches accumulate confidence. Families are
// mutually exclusive by priority.
func (c *Classifier) DetectIntent(text string) Result {
	normalized := Normalize(text)
	if strings.TrimSpace(normalized) == "" {
		return Result{Intent: IntentUnknown}
	}

	for _, f := range c.families {
		if f.flagged && !c.enabled(f.intent) {
			// When the flag is off the family is invisible; if the input
			// would have matched it, collapse to Unknown rather than let
			// a lower-priority family claim it.
			if matchesFamily(f, normalized) {
				return Result{Intent: IntentUnknown}
			}
			continue
		}

		var matched []string
		for _, phrase := range f.phrases {
			if strings.Contains(normalized, phrase) {
				matched = append(matched, phrase)
			}
		}
		if len(matched) > 0 {
			return Result{Intent: f.intent, Confidence: 0.9, MatchedKeywords: matched}
		}

		for _, kw := range f.keywords {
			if containsToken(normalized, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			confidence := 0.5 + 0.1*float64(len(matched)-1)
			if confidence > 0.8 {
				confidence = 0.8
			}
			return Result{Intent: f.intent, Confidence: confidence, MatchedKeywords: matched}
		}
	}
	return Result{Intent: IntentUnknown}
}

func (c *Classifier) enabled(intent Intent) bool {
	switch intent {
	case IntentDamageAssessment:
		return c.flags.DamageAssessment
	default:
		return true
	}
}

func matchesFamily(f family, normalized string) bool {
	for _, phrase := range f.phrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	for _, kw := range f.keywords {
		if containsToken(normalized, kw) {
			return true
		}
	}
	return false
}

// containsToken matches kw against whitespace-delimited tokens, tolerant
// of Arabic clitic prefixes (ال, و, لل, بال) and trailing punctuation.
func containsToken(text, kw string) bool {
	for _, token := range strings.Fields(text) {
		token = strings.Trim(token, "؟?!.,:;()[]\"'")
		if token == kw {
			return true
		}
		for _, prefix := range []string{"ال", "و", "لل", "بال", "وال"} {
			if strings.TrimPrefix(token, prefix) == kw {
				return true
			}
		}
	}
	return false
}
