package llm

import "context"

// Purpose labels a generation call in the request log. Each pipeline stage
// uses its own.
type Purpose string

const (
	PurposeExtract        Purpose = "extract"
	PurposeTranslate      Purpose = "translate"
	PurposeDetectLanguage Purpose = "detect-language"
	PurposeTutorStart     Purpose = "tutor-start"
	PurposeTutor          Purpose = "tutor"

	// PurposeUnknown is reported for calls made without a label.
	PurposeUnknown Purpose = "unknown"
)

// Purposes lists the labelled stages in the order a session reaches them.
func Purposes() []Purpose {
	return []Purpose{PurposeExtract, PurposeTranslate, PurposeDetectLanguage, PurposeTutorStart, PurposeTutor}
}

type purposeKey struct{}

// WithPurpose tags ctx so providers can attribute the call.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the label set by WithPurpose, or PurposeUnknown.
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok && p != "" {
		return p
	}
	return PurposeUnknown
}
