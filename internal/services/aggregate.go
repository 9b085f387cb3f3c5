package services

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Aggregation is the per-question tabulation of responses. It is one of
// *CategoricalAggregate, *RatingAggregate or *TextAggregate.
type Aggregation interface {
	Kind() AggregateKind
	// Count is the number of responses the aggregation considered.
	Count() int
	sealed()
}

// OptionCount is one declared option and how many responses selected it.
type OptionCount struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CategoricalAggregate struct {
	QuestionID string        `json:"question_id"`
	Multiple   bool          `json:"multiple,omitempty"`
	Options    []OptionCount `json:"options"`
	Total      int           `json:"total"`
	// Unmatched counts responses whose labels match no declared option.
	Unmatched int `json:"unmatched,omitempty"`
}

// RatingBucket counts responses for one integer of a rating scale.
type RatingBucket struct {
	Label      string  `json:"label"`
	Value      int     `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RatingAggregate buckets rating responses by scale point. Only integers
// inside the scale are counted: fractional (4.5), non-numeric and
// out-of-range values go to Invalid and are left out of Average, Min and
// Max, so the bucket counts always sum to Total.
type RatingAggregate struct {
	QuestionID string         `json:"question_id"`
	Buckets    []RatingBucket `json:"options"`
	Average    float64        `json:"average"`
	Min        int            `json:"min"`
	Max        int            `json:"max"`
	Total      int            `json:"total"`
	// Invalid counts values that were not an integer inside the scale.
	Invalid int `json:"invalid,omitempty"`
}

type TextAggregate struct {
	QuestionID string  `json:"question_id"`
	Responses  []Value `json:"responses"`
	Total      int     `json:"total"`
}

func (*CategoricalAggregate) Kind() AggregateKind { return KindCategorical }
func (*RatingAggregate) Kind() AggregateKind      { return KindRating }
func (*TextAggregate) Kind() AggregateKind        { return KindText }

func (a *CategoricalAggregate) Count() int { return a.Total }
func (a *RatingAggregate) Count() int      { return a.Total }
func (a *TextAggregate) Count() int        { return a.Total }

func (*CategoricalAggregate) sealed() {}
func (*RatingAggregate) sealed()      {}
func (*TextAggregate) sealed()        {}

func (a *CategoricalAggregate) MarshalJSON() ([]byte, error) {
	type alias CategoricalAggregate
	return json.Marshal(struct {
		Kind AggregateKind `json:"kind"`
		*alias
	}{KindCategorical, (*alias)(a)})
}

func (a *RatingAggregate) MarshalJSON() ([]byte, error) {
	type alias RatingAggregate
	return json.Marshal(struct {
		Kind AggregateKind `json:"kind"`
		*alias
	}{KindRating, (*alias)(a)})
}

func (a *TextAggregate) MarshalJSON() ([]byte, error) {
	type alias TextAggregate
	return json.Marshal(struct {
		Kind AggregateKind `json:"kind"`
		*alias
	}{KindText, (*alias)(a)})
}

// Aggregate tabulates the responses that answer q. Responses for other
// questions and empty values are ignored. It returns nil when nothing is
// left to tabulate. Inputs are not modified.
func Aggregate(q Question, responses []Response) Aggregation {
	values := make([]Value, 0, len(responses))
	for _, r := range responses {
		if r.QuestionID != q.ID || r.Value.IsEmpty() {
			continue
		}
		values = append(values, r.Value)
	}
	if len(values) == 0 {
		return nil
	}

	switch ParseQuestionType(string(q.Type)) {
	case TypeSingleChoice, TypeDropdown, TypeYesNo, TypeLikert:
		return tabulateChoices(q, values, false)
	case TypeMultiChoice:
		return tabulateChoices(q, values, true)
	case TypeRating:
		return tabulateRating(q, values)
	default:
		// short_text and long_text; ParseQuestionType maps unknown tags here
		return listText(q, values)
	}
}

func tabulateChoices(q Question, values []Value, multiple bool) *CategoricalAggregate {
	options := q.EffectiveOptions()
	index := make(map[string]int, len(options))
	counts := make([]int, len(options))
	for i, opt := range options {
		if _, dup := index[opt]; !dup {
			index[opt] = i
		}
	}

	agg := &CategoricalAggregate{QuestionID: q.ID, Multiple: multiple}
	for _, v := range values {
		labels := v.Labels()
		if !multiple && v.IsList() {
			// a single-select answer must be exactly one label
			if len(labels) != 1 {
				agg.Unmatched++
				continue
			}
		}
		matched := false
		seen := make(map[int]bool, len(labels))
		for _, label := range labels {
			i, ok := index[label]
			if !ok || seen[i] {
				continue
			}
			seen[i] = true
			counts[i]++
			matched = true
		}
		if matched {
			agg.Total++
		} else {
			agg.Unmatched++
		}
	}

	agg.Options = make([]OptionCount, len(options))
	for i, opt := range options {
		agg.Options[i] = OptionCount{Label: opt, Count: counts[i], Percentage: Percentage(counts[i], agg.Total)}
	}
	return agg
}

func tabulateRating(q Question, values []Value) *RatingAggregate {
	lo, hi, ok := q.Scale()
	agg := &RatingAggregate{QuestionID: q.ID, Buckets: []RatingBucket{}}
	if !ok {
		agg.Invalid = len(values)
		return agg
	}

	counts := make([]int, hi-lo+1)
	sum := 0
	for _, v := range values {
		n, ok := v.Number()
		if !ok || n != math.Trunc(n) || n < float64(lo) || n > float64(hi) {
			agg.Invalid++
			continue
		}
		iv := int(n)
		counts[iv-lo]++
		sum += iv
		if agg.Total == 0 || iv < agg.Min {
			agg.Min = iv
		}
		if agg.Total == 0 || iv > agg.Max {
			agg.Max = iv
		}
		agg.Total++
	}

	agg.Buckets = make([]RatingBucket, len(counts))
	for i, c := range counts {
		val := lo + i
		agg.Buckets[i] = RatingBucket{
			Label:      strconv.Itoa(val),
			Value:      val,
			Count:      c,
			Percentage: Percentage(c, agg.Total),
		}
	}
	if agg.Total > 0 {
		agg.Average = decimal.NewFromInt(int64(sum)).
			DivRound(decimal.NewFromInt(int64(agg.Total)), 2).
			InexactFloat64()
	}
	return agg
}

func listText(q Question, values []Value) *TextAggregate {
	return &TextAggregate{
		QuestionID: q.ID,
		Responses:  append([]Value(nil), values...),
		Total:      len(values),
	}
}

// Percentage returns count/total*100 rounded to two decimals, and 0 when
// total is zero.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(count)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2).
		InexactFloat64()
}

// QuestionAggregate pairs a question with its aggregation. Result is nil
// when the question has no responses yet.
type QuestionAggregate struct {
	QuestionID string       `json:"question_id"`
	Type       QuestionType `json:"type"`
	Prompt     string       `json:"prompt"`
	Result     Aggregation  `json:"result"`
}

// AggregateAll aggregates every question in order over a shared response list.
func AggregateAll(questions []*Question, responses []Response) []QuestionAggregate {
	byQuestion := make(map[string][]Response, len(questions))
	for _, r := range responses {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}
	out := make([]QuestionAggregate, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionAggregate{
			QuestionID: q.ID,
			Type:       q.Type,
			Prompt:     q.Prompt,
			Result:     Aggregate(*q, byQuestion[q.ID]),
		})
	}
	return out
}
