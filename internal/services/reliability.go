package services

import "math"

// Reliability reports the internal consistency of the scored questions of a
// survey.
type Reliability struct {
	Alpha       float64  `json:"alpha"`
	Items       []string `json:"items"`
	Respondents int      `json:"respondents"`
}

// ReverseScore maps a raw point on a 1..points scale to its mirror. Values
// outside the scale are clamped first.
func ReverseScore(raw, points int) int {
	if points < 2 {
		return raw
	}
	raw = max(1, min(raw, points))
	return points + 1 - raw
}

// ItemScore converts an answer into a numeric item score: the point value
// for rating questions, the 1-based option position for likert questions.
// Reverse-scored questions are mirrored. ok is false for other question
// types and for answers that do not land on the scale.
func ItemScore(q Question, v Value) (float64, bool) {
	switch ParseQuestionType(string(q.Type)) {
	case TypeRating:
		lo, hi, ok := q.Scale()
		if !ok {
			return 0, false
		}
		f, ok := v.Number()
		if !ok || f != math.Trunc(f) || int(f) < lo || int(f) > hi {
			return 0, false
		}
		point := int(f) - lo + 1
		if q.ReverseScored {
			point = ReverseScore(point, hi-lo+1)
		}
		return float64(point + lo - 1), true
	case TypeLikert:
		if v.IsList() {
			return 0, false
		}
		options := q.EffectiveOptions()
		label := v.String()
		for i, opt := range options {
			if opt != label {
				continue
			}
			point := i + 1
			if q.ReverseScored {
				point = ReverseScore(point, len(options))
			}
			return float64(point), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// SurveyReliability computes Cronbach's alpha over the rating and likert
// questions, using only submissions that scored every one of them. It
// returns nil when fewer than two items or two such submissions exist.
func SurveyReliability(questions []*Question, subs []*Submission) *Reliability {
	var items []*Question
	for _, q := range questions {
		switch ParseQuestionType(string(q.Type)) {
		case TypeRating, TypeLikert:
			items = append(items, q)
		}
	}
	if len(items) < 2 {
		return nil
	}

	var matrix [][]float64
	for _, sub := range subs {
		byQuestion := make(map[string]Value, len(sub.Answers))
		for _, ans := range sub.Answers {
			if _, seen := byQuestion[ans.QuestionID]; !seen || !ans.Value.IsEmpty() {
				byQuestion[ans.QuestionID] = ans.Value
			}
		}
		row := make([]float64, 0, len(items))
		for _, q := range items {
			score, ok := ItemScore(*q, byQuestion[q.ID])
			if !ok {
				break
			}
			row = append(row, score)
		}
		if len(row) == len(items) {
			matrix = append(matrix, row)
		}
	}
	if len(matrix) < 2 {
		return nil
	}

	ids := make([]string, len(items))
	for i, q := range items {
		ids[i] = q.ID
	}
	return &Reliability{Alpha: CronbachAlpha(matrix), Items: ids, Respondents: len(matrix)}
}

// CronbachAlpha computes alpha for a [respondents][items] score matrix with
// population variances, clamped to [0, 1]. Ragged or degenerate matrices
// yield 0.
func CronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}
	for _, row := range matrix {
		if len(row) != k {
			return 0
		}
	}

	totals := make([]float64, n)
	column := make([]float64, n)
	var itemVariance float64
	for j := 0; j < k; j++ {
		for i, row := range matrix {
			column[i] = row[j]
			totals[i] += row[j]
		}
		itemVariance += populationVariance(column)
	}
	totalVariance := populationVariance(totals)
	if totalVariance == 0 {
		return 0
	}
	kf := float64(k)
	alpha := kf / (kf - 1) * (1 - itemVariance/totalVariance)
	return math.Max(0, math.Min(alpha, 1))
}

func populationVariance(xs []float64) float64 {
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}
