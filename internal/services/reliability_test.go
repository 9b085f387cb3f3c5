package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronbachAlphaPerfectCorrelation(t *testing.T) {
	data := [][]float64{
		{1, 1, 1},
		{2, 2, 2},
		{3, 3, 3},
		{4, 4, 4},
	}
	assert.InDelta(t, 1.0, CronbachAlpha(data), 1e-9)
}

func TestCronbachAlphaBoundsAndDegenerate(t *testing.T) {
	negative := [][]float64{
		{1, 2, 3},
		{2, 1, 4},
		{3, 0, 5},
		{4, -1, 6},
	}
	got := CronbachAlpha(negative)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)

	assert.Zero(t, CronbachAlpha(nil))
	assert.Zero(t, CronbachAlpha([][]float64{{1}, {2}}))
	assert.Zero(t, CronbachAlpha([][]float64{{1, 2}, {3}}))
	assert.Zero(t, CronbachAlpha([][]float64{{3, 3}, {3, 3}}))
}

func TestReverseScore(t *testing.T) {
	cases := []struct {
		raw, points, want int
	}{
		{1, 5, 5},
		{2, 5, 4},
		{3, 5, 3},
		{5, 5, 1},
		{0, 5, 5},
		{6, 5, 1},
		{1, 7, 7},
		{7, 7, 1},
		{3, 1, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ReverseScore(c.raw, c.points), "ReverseScore(%d,%d)", c.raw, c.points)
	}
}

func TestItemScore(t *testing.T) {
	rating := Question{ID: "r", Type: TypeRating, MinValue: intPtr(0), MaxValue: intPtr(10)}
	reversedRating := rating
	reversedRating.ReverseScored = true
	likert := Question{ID: "l", Type: TypeLikert}
	reversedLikert := Question{ID: "l", Type: TypeLikert, ReverseScored: true}

	cases := []struct {
		name   string
		q      Question
		v      Value
		want   float64
		wantOK bool
	}{
		{"rating point", rating, NumberValue(7), 7, true},
		{"rating text", rating, TextValue("3"), 3, true},
		{"rating fraction", rating, NumberValue(2.5), 0, false},
		{"rating off scale", rating, NumberValue(11), 0, false},
		{"rating reversed", reversedRating, NumberValue(7), 3, true},
		{"likert label", likert, TextValue("Agree"), 4, true},
		{"likert reversed", reversedLikert, TextValue("Agree"), 2, true},
		{"likert unknown", likert, TextValue("Maybe"), 0, false},
		{"likert list", likert, ListValue("Agree"), 0, false},
		{"text question", Question{ID: "t", Type: TypeShortText}, TextValue("5"), 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := ItemScore(c.q, c.v)
			assert.Equal(t, c.wantOK, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestSurveyReliability(t *testing.T) {
	questions := []*Question{
		{ID: "clo1", Type: TypeLikert},
		{ID: "clo2", Type: TypeLikert, ReverseScored: true},
		{ID: "note", Type: TypeLongText},
	}
	sub := func(a, b string) *Submission {
		return &Submission{Answers: []Response{
			{QuestionID: "clo1", Value: TextValue(a)},
			{QuestionID: "clo2", Value: TextValue(b)},
			{QuestionID: "note", Value: TextValue("x")},
		}}
	}
	subs := []*Submission{
		sub("Strongly Disagree", "Strongly Agree"),
		sub("Neutral", "Neutral"),
		sub("Strongly Agree", "Strongly Disagree"),
		{Answers: answers("clo1", TextValue("Agree"))},
	}

	rel := SurveyReliability(questions, subs)
	require.NotNil(t, rel)
	assert.Equal(t, []string{"clo1", "clo2"}, rel.Items)
	assert.Equal(t, 3, rel.Respondents)
	assert.InDelta(t, 1.0, rel.Alpha, 1e-9)

	assert.Nil(t, SurveyReliability(questions[:1], subs))
	assert.Nil(t, SurveyReliability(questions, subs[3:]))
}
