package speaker

import (
	"fmt"
	"strings"
)

// Fuzzy-suggestion bounds for rule 4. The upper bound is exclusive: exact
// matches after normalization are already consumed by rule 1.
const (
	fuzzySuggestLower = 0.80
	fuzzySuggestUpper = 1.00
)

// pairVerdict is the outcome of evaluating one rule against one label pair.
type pairVerdict struct {
	autoMerge  *AutoMerge
	suggestion *Suggestion
}

// mergeRule is one predicate in the ranked duplicate-detection rule list.
// Rules are evaluated in declaration order per pair; the first rule that
// returns a non-nil verdict classifies the pair and later rules never see it.
type mergeRule struct {
	name     string
	evaluate func(a, b string) *pairVerdict
}

// mergeRules is the fixed, ordered rule list. Keeping this as an explicit
// slice (rather than nested conditionals) makes the first-match tie-break
// independently testable.
var mergeRules = []mergeRule{
	{name: "exact-normalized", evaluate: ruleExactNormalized},
	{name: "first-name", evaluate: ruleFirstName},
	{name: "surname-initial", evaluate: ruleSurnameInitial},
	{name: "fuzzy", evaluate: ruleFuzzy},
}

// DetectDuplicates evaluates every unordered pair of the given raw speaker
// labels against the ranked rule list and returns the auto-mergeable pairs
// plus weaker suggestions.
//
// Labels must already be filtered through [ExtractDistinctLabels] (or
// [IsNonSpeakerLabel]); the detector assumes every input is a real speaker.
//
// Once a pair auto-merges, the consumed (From) side is excluded from all
// further pairings in the same pass, which guarantees a label never appears
// as the From of two different merges. Transitive chains (A→B, B→C) are
// deliberately not collapsed in one pass; apply the merges and run another
// pass instead.
func DetectDuplicates(labels []string) DetectionResult {
	var res DetectionResult
	consumed := make(map[string]struct{})

	for i := 0; i < len(labels); i++ {
		a := labels[i]
		if _, gone := consumed[a]; gone {
			continue
		}
		for j := i + 1; j < len(labels); j++ {
			b := labels[j]
			if _, gone := consumed[a]; gone {
				break
			}
			if _, gone := consumed[b]; gone {
				continue
			}

			for _, rule := range mergeRules {
				v := rule.evaluate(a, b)
				if v == nil {
					continue
				}
				if v.autoMerge != nil {
					res.AutoMerges = append(res.AutoMerges, *v.autoMerge)
					consumed[v.autoMerge.From] = struct{}{}
				}
				if v.suggestion != nil {
					res.Suggestions = append(res.Suggestions, *v.suggestion)
				}
				break
			}
		}
	}
	return res
}

// ruleExactNormalized fires when two distinct raw forms normalize to the same
// string ("John Smith" / "JOHN SMITH"). The longer raw string wins as the
// merge target; equal lengths break lexicographically so the result is
// deterministic.
func ruleExactNormalized(a, b string) *pairVerdict {
	if Normalize(a) != Normalize(b) {
		return nil
	}
	to, from := a, b
	if len(b) > len(a) || (len(b) == len(a) && b < a) {
		to, from = b, a
	}
	return &pairVerdict{autoMerge: &AutoMerge{
		From:   from,
		To:     to,
		Reason: "same name, different case/punctuation",
	}}
}

// ruleFirstName fires when one label is a single token equal to the first
// name of the other, multi-token label ("Tim" / "Tim Peyser"): the full name
// wins. Two identical single tokens merge to either side.
func ruleFirstName(a, b string) *pairVerdict {
	aTokens := strings.Fields(Normalize(a))
	bTokens := strings.Fields(Normalize(b))
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return nil
	}

	if len(aTokens) == 1 && len(bTokens) == 1 {
		if aTokens[0] == bTokens[0] {
			return &pairVerdict{autoMerge: &AutoMerge{
				From:   a,
				To:     b,
				Reason: "same first name",
			}}
		}
		return nil
	}

	if len(aTokens) == 1 && aTokens[0] == FirstName(Normalize(b)) {
		return &pairVerdict{autoMerge: &AutoMerge{
			From:   a,
			To:     b,
			Reason: "first name matches full name",
		}}
	}
	if len(bTokens) == 1 && bTokens[0] == FirstName(Normalize(a)) {
		return &pairVerdict{autoMerge: &AutoMerge{
			From:   b,
			To:     a,
			Reason: "first name matches full name",
		}}
	}
	return nil
}

// ruleSurnameInitial fires when two multi-token labels share a last name and
// their first names start with the same letter ("Jon Smith" / "Johnathan
// Smith"). Too weak to auto-apply: distinct people routinely share a surname
// and an initial, so this only produces a suggestion.
func ruleSurnameInitial(a, b string) *pairVerdict {
	lastA, lastB := LastName(Normalize(a)), LastName(Normalize(b))
	if lastA == "" || lastA != lastB {
		return nil
	}
	firstA, firstB := FirstName(Normalize(a)), FirstName(Normalize(b))
	if firstA == "" || firstB == "" || firstA[0] != firstB[0] {
		return nil
	}
	return &pairVerdict{suggestion: &Suggestion{
		Speakers: [2]string{a, b},
		Reason: fmt.Sprintf("share last name %q and first initial %q",
			lastA, string(firstA[0])),
	}}
}

// ruleFuzzy fires when overall similarity lands strictly between the bounds.
func ruleFuzzy(a, b string) *pairVerdict {
	s := Similarity(a, b)
	if s <= fuzzySuggestLower || s >= fuzzySuggestUpper {
		return nil
	}
	return &pairVerdict{suggestion: &Suggestion{
		Speakers: [2]string{a, b},
		Reason:   fmt.Sprintf("%d%% similar", int(s*100)),
	}}
}
