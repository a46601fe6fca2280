package speaker

// OperatorSuggestion proposes mapping a raw label to the operator's own
// identity. Like a detector [Suggestion] it is advisory: callers stage and
// confirm it, the core never applies it unilaterally.
type OperatorSuggestion struct {
	RawLabel   string           `json:"raw_label"`
	Identity   ResolvedIdentity `json:"identity"`
	Confidence Confidence       `json:"confidence"`
	Reason     string           `json:"reason"`
}

// SuggestOperator fires if and only if the transcript contains exactly one
// distinct speaker and the profile has a name: a solo recording is almost
// always the operator dictating notes. This is the only heuristic keyed on
// cardinality rather than string similarity, and it must never fire for two
// or more speakers no matter how closely a label resembles the profile name.
//
// labels must already be filtered through [ExtractDistinctLabels].
func SuggestOperator(labels []string, profile Profile) (OperatorSuggestion, bool) {
	if len(labels) != 1 || profile.Name == "" {
		return OperatorSuggestion{}, false
	}
	return OperatorSuggestion{
		RawLabel: labels[0],
		Identity: ResolvedIdentity{
			DisplayName: profile.Name,
			Email:       profile.Email,
			Link:        profile.Name,
		},
		Confidence: ConfidenceHigh,
		Reason:     "single speaker, assumed to be the operator",
	}, true
}
