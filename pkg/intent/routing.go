// SPDX-License-Identifier: Apache-2.0

package intent

// Route maps an intent to the capability that serves it.
type Route struct {
	CapabilityName  string
	SkillID         string
	RequiresImages  bool
	FallbackMessage string // non-empty only for clarification routes
}

// routes is a pure lookup table; it carries no behavior.
var routes = map[Intent]Route{
	IntentGreeting: {
		CapabilityName: "greet",
		SkillID:        "conversation",
	},
	IntentStudyPlan: {
		CapabilityName: "generate_study_plan",
		SkillID:        "planning",
	},
	IntentCourseInquiry: {
		CapabilityName: "search_courses",
		SkillID:        "catalog",
	},
	IntentGeneralEducation: {
		CapabilityName: "answer_question",
		SkillID:        "tutoring",
	},
	IntentDamageAssessment: {
		CapabilityName: "assess_damage",
		SkillID:        "vision",
		RequiresImages: true,
	},
	IntentAdminReports: {
		CapabilityName: "usage_report",
		SkillID:        "administration",
	},
	IntentUnknown: {
		CapabilityName:  "clarify",
		SkillID:         "conversation",
		FallbackMessage: "لم أفهم طلبك تمامًا، هل يمكنك التوضيح أكثر؟",
	},
}

// RouteIntent returns the capability route for intent. Unknown intents
// route to the clarification capability with a fallback message.
func RouteIntent(i Intent) Route {
	if route, ok := routes[i]; ok {
		return route
	}
	return routes[IntentUnknown]
}

// RequiresAdmin reports whether the intent may only be served to admins.
func RequiresAdmin(i Intent) bool {
	return i == IntentAdminReports
}

// RequiresFeatureFlag reports whether the intent family is gated by a
// feature flag. The planner consults this before execution so a disabled
// feature is invisible at both routing and execution time.
func RequiresFeatureFlag(i Intent) bool {
	return i == IntentDamageAssessment
}
