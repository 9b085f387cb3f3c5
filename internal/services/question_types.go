package services

import (
	"encoding/json"
	"strings"
)

// QuestionType identifies how a question is rendered, validated and
// aggregated. The set is closed; unknown tags decode to TypeShortText.
type QuestionType string

const (
	TypeSingleChoice QuestionType = "single_choice"
	TypeMultiChoice  QuestionType = "multi_choice"
	TypeDropdown     QuestionType = "dropdown"
	TypeShortText    QuestionType = "short_text"
	TypeLongText     QuestionType = "long_text"
	TypeRating       QuestionType = "rating"
	TypeLikert       QuestionType = "likert"
	TypeYesNo        QuestionType = "yes_no"
)

// AggregateKind names the shape of an aggregation result.
type AggregateKind string

const (
	KindCategorical AggregateKind = "categorical"
	KindRating      AggregateKind = "rating"
	KindText        AggregateKind = "text"
)

// TypeInfo is the static metadata of a question type.
type TypeInfo struct {
	Type            QuestionType  `json:"type"`
	Label           string        `json:"label"`
	Kind            AggregateKind `json:"kind"`
	RequiresOptions bool          `json:"requires_options"`
	AllowsMultiple  bool          `json:"allows_multiple"`
	HasScale        bool          `json:"has_scale"`
	defaults        []string
}

// DefaultOptions returns a copy of the implicit option list, if any.
func (ti TypeInfo) DefaultOptions() []string {
	if len(ti.defaults) == 0 {
		return nil
	}
	return append([]string(nil), ti.defaults...)
}

func (ti TypeInfo) MarshalJSON() ([]byte, error) {
	type alias TypeInfo
	return json.Marshal(struct {
		alias
		DefaultOptions []string `json:"default_options,omitempty"`
	}{alias: alias(ti), DefaultOptions: ti.defaults})
}

var likertDefaults = []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"}

var typeTable = []TypeInfo{
	{Type: TypeSingleChoice, Label: "Single choice", Kind: KindCategorical, RequiresOptions: true},
	{Type: TypeMultiChoice, Label: "Multiple choice", Kind: KindCategorical, RequiresOptions: true, AllowsMultiple: true},
	{Type: TypeDropdown, Label: "Dropdown", Kind: KindCategorical, RequiresOptions: true},
	{Type: TypeShortText, Label: "Short text", Kind: KindText},
	{Type: TypeLongText, Label: "Long text", Kind: KindText},
	{Type: TypeRating, Label: "Numeric rating", Kind: KindRating, HasScale: true},
	{Type: TypeLikert, Label: "Likert scale", Kind: KindCategorical, defaults: likertDefaults},
	{Type: TypeYesNo, Label: "Yes / No", Kind: KindCategorical, defaults: []string{"Yes", "No"}},
}

var typeIndex = func() map[QuestionType]int {
	m := make(map[QuestionType]int, len(typeTable))
	for i, ti := range typeTable {
		m[ti.Type] = i
	}
	return m
}()

// ParseQuestionType normalizes a raw tag. Unknown or empty tags fall back to
// TypeShortText.
func ParseQuestionType(raw string) QuestionType {
	t := QuestionType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := typeIndex[t]; ok {
		return t
	}
	return TypeShortText
}

// Known reports whether t is one of the declared question types.
func (t QuestionType) Known() bool {
	_, ok := typeIndex[t]
	return ok
}

// LookupType returns the metadata of t, or that of TypeShortText when t is
// not a declared type.
func LookupType(t QuestionType) TypeInfo {
	if i, ok := typeIndex[t]; ok {
		return typeTable[i]
	}
	return typeTable[typeIndex[TypeShortText]]
}

// QuestionTypes lists every declared type in declaration order.
func QuestionTypes() []TypeInfo {
	return append([]TypeInfo(nil), typeTable...)
}
