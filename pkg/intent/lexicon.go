// SPDX-License-Identifier: Apache-2.0

package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon is a YAML overlay extending the built-in keyword tables, keyed
// by intent name. Deployments use it to add regional vocabulary without
// a rebuild.
//
//	study_plan:
//	  phrases: ["برنامج مراجعة"]
//	  keywords: ["مراجعة"]
type Lexicon map[string]LexiconEntry

// LexiconEntry extends one intent family.
type LexiconEntry struct {
	Phrases  []string `yaml:"phrases"`
	Keywords []string `yaml:"keywords"`
}

// ParseLexicon decodes a YAML overlay.
func ParseLexicon(data []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("intent lexicon: %w", err)
	}
	for name := range lex {
		if !knownIntent(Intent(name)) {
			return nil, fmt.Errorf("intent lexicon: unknown intent %q", name)
		}
	}
	return lex, nil
}

// LoadLexicon reads and parses a YAML overlay file.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intent lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// Apply merges the overlay into the classifier's tables.
func (l Lexicon) Apply(c *Classifier) {
	for name, entry := range l {
		c.AddKeywords(Intent(name), entry.Phrases, entry.Keywords)
	}
}

func knownIntent(i Intent) bool {
	switch i {
	case IntentGreeting, IntentStudyPlan, IntentCourseInquiry,
		IntentGeneralEducation, IntentDamageAssessment, IntentAdminReports:
		return true
	}
	return false
}
