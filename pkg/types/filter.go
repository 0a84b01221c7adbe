// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FilterMethod names the stage that decided a paper's relevance.
type FilterMethod string

const (
	MethodDisabled FilterMethod = "disabled"
	MethodKeyword  FilterMethod = "keyword"
	MethodSemantic FilterMethod = "semantic"
	MethodUnknown  FilterMethod = "unknown"
)

// Verdict is the three-valued outcome of the semantic relevance check.
// "unknown" means the model reply could not be classified; it is kept
// distinct from yes/no because the filter modes resolve it differently.
type Verdict string

const (
	VerdictYes     Verdict = "yes"
	VerdictNo      Verdict = "no"
	VerdictUnknown Verdict = "unknown"
)

// Bool reports the verdict as a boolean under the given default for
// unknown. Callers must pick the default per filter mode instead of
// coercing early.
func (v Verdict) Bool(unknownAs bool) bool {
	switch v {
	case VerdictYes:
		return true
	case VerdictNo:
		return false
	default:
		return unknownAs
	}
}

// FilterDecision is the per-paper, per-invocation outcome of the
// relevance filter. It is attached transiently to surviving papers and
// persisted only as part of the paper's JSON record.
type FilterDecision struct {
	// Passed indicates whether the paper survived the filter.
	Passed bool `json:"passed" yaml:"passed"`

	// Method is the stage that produced the decision.
	Method FilterMethod `json:"method" yaml:"method"`

	// KeywordResult is the keyword-stage outcome, absent when the
	// keyword stage did not run.
	KeywordResult *bool `json:"keyword_result,omitempty" yaml:"keyword_result,omitempty"`

	// SemanticResult is the semantic-stage verdict, absent when the
	// semantic stage did not run.
	SemanticResult *Verdict `json:"semantic_result,omitempty" yaml:"semantic_result,omitempty"`
}
