package trace

import "strings"

// Defaults substituted for absent optional trace fields.
const (
	DefaultModel        = "mistral_7b_v3"
	DefaultRole         = "budtender"
	DefaultLanguage     = "en"
	DefaultOrchestrator = "multi-model"
)

// IsEmpty reports the "no trace" condition: a blank or absent query.
// The compiler returns an empty graph for such traces instead of failing.
func (t DecisionTrace) IsEmpty() bool {
	return strings.TrimSpace(t.Query) == ""
}

// Normalize returns a copy of the trace with safe defaults substituted for
// absent optional fields, so downstream logic never branches on missing
// values. List fields are always non-nil after normalization. The input is
// not mutated.
func Normalize(t DecisionTrace) DecisionTrace {
	out := t

	if out.ModelUsed == "" {
		out.ModelUsed = DefaultModel
	}
	if out.RoleSelected == "" {
		out.RoleSelected = DefaultRole
	}
	if out.LanguageDetected == "" {
		out.LanguageDetected = DefaultLanguage
	}
	if out.OrchestratorUsed == "" {
		out.OrchestratorUsed = DefaultOrchestrator
	}

	if out.Entities == nil {
		out.Entities = []Entity{}
	}
	if out.SlangMappings == nil {
		out.SlangMappings = []SlangMapping{}
	}
	if out.Products == nil {
		out.Products = []Product{}
	}
	if out.InterfacesUsed == nil {
		out.InterfacesUsed = []string{}
	}
	if out.DecisionSteps == nil {
		out.DecisionSteps = []string{}
	}
	if out.SearchCriteria == nil {
		out.SearchCriteria = map[string]any{}
	}

	return out
}
