// SPDX-License-Identifier: Apache-2.0

package errors

// Locale selects the language of user-facing error text.
type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"
)

// userMessages holds the user-facing template per code and locale.
// The Arabic text is the primary surface; English is the fallback.
var userMessages = map[Code]map[Locale]string{
	CodeInvalidInput: {
		LocaleArabic:  "المدخلات غير صالحة، يرجى التحقق والمحاولة مجددًا.",
		LocaleEnglish: "The input is invalid. Please check it and try again.",
	},
	CodeUnauthorized: {
		LocaleArabic:  "يجب تسجيل الدخول للمتابعة.",
		LocaleEnglish: "You must sign in to continue.",
	},
	CodePermissionDenied: {
		LocaleArabic:  "ليس لديك الصلاحية لتنفيذ هذا الإجراء.",
		LocaleEnglish: "You do not have permission to perform this action.",
	},
	CodeRateLimited: {
		LocaleArabic:  "لقد تجاوزت الحد المسموح من الطلبات، يرجى الانتظار قليلًا.",
		LocaleEnglish: "You have exceeded the request limit. Please wait a moment.",
	},
	CodeSafetyBlocked: {
		LocaleArabic:  "تم حظر هذه الرسالة لأسباب تتعلق بالسلامة.",
		LocaleEnglish: "This message was blocked for safety reasons.",
	},
	CodeToolNotFound: {
		LocaleArabic:  "الأداة المطلوبة غير متوفرة.",
		LocaleEnglish: "The requested tool is not available.",
	},
	CodeToolExecutionFailed: {
		LocaleArabic:  "تعذر تنفيذ الأداة، يرجى المحاولة لاحقًا.",
		LocaleEnglish: "The tool could not be executed. Please try again later.",
	},
	CodeLLMTimeout: {
		LocaleArabic:  "استغرقت المعالجة وقتًا طويلًا، يرجى إعادة المحاولة.",
		LocaleEnglish: "Processing took too long. Please retry.",
	},
	CodeLLMUnavailable: {
		LocaleArabic:  "الخدمة الذكية غير متاحة حاليًا، يرجى المحاولة لاحقًا.",
		LocaleEnglish: "The assistant service is currently unavailable. Please try later.",
	},
	CodeInternal: {
		LocaleArabic:  "حدث خطأ غير متوقع، يرجى المحاولة لاحقًا.",
		LocaleEnglish: "An unexpected error occurred. Please try again later.",
	},
	CodeNoImagesProvided: {
		LocaleArabic:  "يجب إرفاق صورة واحدة على الأقل.",
		LocaleEnglish: "At least one image must be attached.",
	},
	CodeImageLimitExceeded: {
		LocaleArabic:  "عدد الصور المرفقة يتجاوز الحد المسموح.",
		LocaleEnglish: "The number of attached images exceeds the allowed limit.",
	},
}

// UserMessage returns the localized user-facing text for the error's code.
// Unknown locales fall back to Arabic; unknown codes to the internal text.
func (e *Error) UserMessage(locale Locale) string {
	msgs, ok := userMessages[e.Code]
	if !ok {
		msgs = userMessages[CodeInternal]
	}
	if msg, ok := msgs[locale]; ok {
		return msg
	}
	return msgs[LocaleArabic]
}

// UserMessageFor is a convenience for callers holding a plain error.
func UserMessageFor(err error, locale Locale) string {
	return Wrap(err).UserMessage(locale)
}
