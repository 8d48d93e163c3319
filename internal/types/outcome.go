package types

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind string

const (
	OutcomeCompleted     OutcomeKind = "completed"
	OutcomeTimedOut      OutcomeKind = "timed_out"
	OutcomeProviderError OutcomeKind = "provider_error"
)

// Outcome is the result of one completion attempt. Exactly one of Text
// (Completed) or Detail (ProviderError) is meaningful, depending on Kind.
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Detail string
}

// Completed returns a successful outcome carrying text.
func Completed(text string) Outcome {
	return Outcome{Kind: OutcomeCompleted, Text: text}
}

// TimedOut returns the outcome for a completion that missed its deadline.
func TimedOut() Outcome {
	return Outcome{Kind: OutcomeTimedOut}
}

// ProviderError returns a failed outcome with a human-readable detail.
func ProviderError(detail string) Outcome {
	if detail == "" {
		detail = "completion provider error"
	}
	return Outcome{Kind: OutcomeProviderError, Detail: detail}
}

func (o Outcome) IsCompleted() bool { return o.Kind == OutcomeCompleted }
