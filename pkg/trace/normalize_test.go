package trace

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	got := Normalize(DecisionTrace{Query: "hi"})

	if got.ModelUsed != DefaultModel {
		t.Errorf("model = %q, want %q", got.ModelUsed, DefaultModel)
	}
	if got.RoleSelected != DefaultRole {
		t.Errorf("role = %q, want %q", got.RoleSelected, DefaultRole)
	}
	if got.LanguageDetected != DefaultLanguage {
		t.Errorf("language = %q, want %q", got.LanguageDetected, DefaultLanguage)
	}
	if got.OrchestratorUsed != DefaultOrchestrator {
		t.Errorf("orchestrator = %q, want %q", got.OrchestratorUsed, DefaultOrchestrator)
	}

	if got.Entities == nil || got.SlangMappings == nil || got.Products == nil {
		t.Error("list fields must be non-nil after normalization")
	}
	if got.InterfacesUsed == nil || got.DecisionSteps == nil || got.SearchCriteria == nil {
		t.Error("interfaces, steps, and criteria must be non-nil after normalization")
	}
}

func TestNormalizePreservesValues(t *testing.T) {
	in := DecisionTrace{
		Query:            "q",
		ModelUsed:        "llama_70b",
		RoleSelected:     "sommelier",
		LanguageDetected: "es",
		OrchestratorUsed: "single",
		Entities:         []Entity{{Type: "strain", Value: "gg4", Confidence: 0.5}},
	}
	got := Normalize(in)

	if got.ModelUsed != "llama_70b" || got.RoleSelected != "sommelier" {
		t.Errorf("overwrote provided values: %+v", got)
	}
	if got.LanguageDetected != "es" || got.OrchestratorUsed != "single" {
		t.Errorf("overwrote provided values: %+v", got)
	}
	if len(got.Entities) != 1 || got.Entities[0].Value != "gg4" {
		t.Errorf("entities = %+v", got.Entities)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := DecisionTrace{Query: "q"}
	_ = Normalize(in)
	if in.ModelUsed != "" || in.Entities != nil {
		t.Errorf("input mutated: %+v", in)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{"hi", false},
	}
	for _, tt := range tests {
		if got := (DecisionTrace{Query: tt.query}).IsEmpty(); got != tt.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
