// Package trace defines the decision trace record produced by the upstream
// analysis service and its normalization into a fully-populated form.
//
// A decision trace describes how one customer query moved through the AI
// recommendation pipeline: which model and role were selected, the detected
// intent and entities, slang normalization, matched products, and the final
// response. Traces arrive as loosely-typed JSON; this package decodes them
// tolerantly (a scalar where a list is expected becomes an empty list) so
// that the compiler never has to branch on malformed input.
package trace

import (
	"bytes"
	"encoding/json"
)

// Entity is a detected entity in the customer query.
type Entity struct {
	Type       string  `json:"type" bson:"type"`
	Value      string  `json:"value" bson:"value"`
	Confidence float64 `json:"confidence" bson:"confidence"`
}

// SlangMapping relates an informal customer term to its formal product term.
type SlangMapping struct {
	Slang  string `json:"slang" bson:"slang"`
	Formal string `json:"formal" bson:"formal"`
}

// Product is a matched product with its relevance score in [0,1].
type Product struct {
	Name      string  `json:"name" bson:"name"`
	Score     float64 `json:"score" bson:"score"`
	Reasoning string  `json:"reasoning" bson:"reasoning"`
}

// DecisionTrace is the structured record describing how one customer query
// was processed. Field names follow the wire format of the analyze-decision
// endpoint. Pointer fields are optional; list fields may be nil until
// normalized.
type DecisionTrace struct {
	Query              string         `json:"query" bson:"query"`
	Intent             *string        `json:"intent" bson:"intent"`
	IntentConfidence   *float64       `json:"intent_confidence" bson:"intent_confidence"`
	IntentReasoning    *string        `json:"reasoning" bson:"reasoning"`
	Entities           []Entity       `json:"entities" bson:"entities"`
	SlangMappings      []SlangMapping `json:"slang_mappings" bson:"slang_mappings"`
	SearchCriteria     map[string]any `json:"search_criteria" bson:"search_criteria"`
	Products           []Product      `json:"products" bson:"products"`
	Response           *string        `json:"response" bson:"response"`
	ResponseConfidence *float64       `json:"response_confidence" bson:"response_confidence"`
	ModelUsed          string         `json:"model_used" bson:"model_used"`
	RoleSelected       string         `json:"role_selected" bson:"role_selected"`
	LanguageDetected   string         `json:"language_detected" bson:"language_detected"`
	OrchestratorUsed   string         `json:"orchestrator_used" bson:"orchestrator_used"`
	InterfacesUsed     []string       `json:"interfaces_used" bson:"interfaces_used"`
	DecisionSteps      []string       `json:"decision_steps" bson:"decision_steps"`
	ProcessingTime     int            `json:"processing_time_ms" bson:"processing_time_ms"`
}

// UnmarshalJSON decodes a trace tolerantly. List-valued fields that arrive
// with the wrong JSON type (a string, number, or object where an array is
// expected) decode as empty lists rather than failing the whole trace; the
// same applies to a non-object search_criteria.
func (t *DecisionTrace) UnmarshalJSON(data []byte) error {
	type alias DecisionTrace
	aux := struct {
		*alias
		Entities       json.RawMessage `json:"entities"`
		SlangMappings  json.RawMessage `json:"slang_mappings"`
		SearchCriteria json.RawMessage `json:"search_criteria"`
		Products       json.RawMessage `json:"products"`
		InterfacesUsed json.RawMessage `json:"interfaces_used"`
		DecisionSteps  json.RawMessage `json:"decision_steps"`
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.Entities = decodeList[Entity](aux.Entities)
	t.SlangMappings = decodeList[SlangMapping](aux.SlangMappings)
	t.Products = decodeList[Product](aux.Products)
	t.InterfacesUsed = decodeList[string](aux.InterfacesUsed)
	t.DecisionSteps = decodeList[string](aux.DecisionSteps)
	t.SearchCriteria = decodeMap(aux.SearchCriteria)
	return nil
}

// Parse decodes a raw trace payload from the analysis service.
func Parse(data []byte) (DecisionTrace, error) {
	var t DecisionTrace
	if err := json.Unmarshal(data, &t); err != nil {
		return DecisionTrace{}, err
	}
	return t, nil
}

// Marshal encodes a trace in its wire format. The output round-trips
// through [Parse].
func Marshal(t DecisionTrace) ([]byte, error) {
	return json.Marshal(t)
}

// decodeList decodes raw JSON into a slice, coercing anything that is not
// an array (including null and absent) to nil.
func decodeList[T any](raw json.RawMessage) []T {
	if !startsWith(raw, '[') {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// decodeMap decodes raw JSON into a map, coercing anything that is not an
// object to nil.
func decodeMap(raw json.RawMessage) map[string]any {
	if !startsWith(raw, '{') {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func startsWith(raw json.RawMessage, b byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == b
}
