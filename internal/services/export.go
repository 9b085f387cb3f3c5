package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// LongRow is one answer in the long export.
type LongRow struct {
	SubmissionID string
	Respondent   string
	QuestionID   string
	Value        string
	SubmittedAt  string // RFC3339
}

// AggregateRow is one counted label of a question in the aggregates export.
type AggregateRow struct {
	QuestionID string
	Type       QuestionType
	Label      string
	Count      int
	Percentage float64
}

// WideRow is one submission in the wide export. Values is keyed by question id.
type WideRow struct {
	SubmissionID string
	Respondent   string
	SubmittedAt  string // RFC3339
	Values       map[string]string
}

// ExportWideCSV renders one row per submission and one column per question,
// in the order of questionIDs. Unanswered cells are empty.
func ExportWideCSV(questionIDs []string, rows []WideRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := append([]string{"submission_id", "respondent", "submitted_at"}, questionIDs...)
	_ = w.Write(header)
	for _, r := range rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, r.SubmissionID, r.Respondent, r.SubmittedAt)
		for _, id := range questionIDs {
			rec = append(rec, r.Values[id])
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportLongCSV renders rows into a long-format CSV.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"submission_id", "respondent", "question_id", "value", "submitted_at"})
	for _, r := range rows {
		if err := w.Write([]string{r.SubmissionID, r.Respondent, r.QuestionID, r.Value, r.SubmittedAt}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportAggregatesCSV renders one row per option or rating bucket. Text
// questions contribute a single row with their response count.
func ExportAggregatesCSV(rows []AggregateRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"question_id", "type", "label", "count", "percentage"})
	for _, r := range rows {
		rec := []string{
			r.QuestionID,
			string(r.Type),
			r.Label,
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.Percentage, 'f', 2, 64),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func buildLongRows(subs []*Submission) []LongRow {
	out := make([]LongRow, 0, len(subs))
	for _, sub := range subs {
		ts := sub.SubmittedAt.UTC().Format(time.RFC3339)
		for _, a := range sub.Answers {
			out = append(out, LongRow{
				SubmissionID: sub.ID,
				Respondent:   sub.Respondent,
				QuestionID:   a.QuestionID,
				Value:        a.Value.String(),
				SubmittedAt:  ts,
			})
		}
	}
	return out
}

// buildWideRows keeps the last non-empty answer per question, matching what
// validation looks at.
func buildWideRows(subs []*Submission) []WideRow {
	out := make([]WideRow, 0, len(subs))
	for _, sub := range subs {
		values := make(map[string]string, len(sub.Answers))
		for _, a := range sub.Answers {
			if _, seen := values[a.QuestionID]; !seen || !a.Value.IsEmpty() {
				values[a.QuestionID] = a.Value.String()
			}
		}
		out = append(out, WideRow{
			SubmissionID: sub.ID,
			Respondent:   sub.Respondent,
			SubmittedAt:  sub.SubmittedAt.UTC().Format(time.RFC3339),
			Values:       values,
		})
	}
	return out
}

func buildAggregateRows(aggs []QuestionAggregate) []AggregateRow {
	var out []AggregateRow
	for _, qa := range aggs {
		switch a := qa.Result.(type) {
		case *CategoricalAggregate:
			for _, o := range a.Options {
				out = append(out, AggregateRow{qa.QuestionID, qa.Type, o.Label, o.Count, o.Percentage})
			}
		case *RatingAggregate:
			for _, b := range a.Buckets {
				out = append(out, AggregateRow{qa.QuestionID, qa.Type, b.Label, b.Count, b.Percentage})
			}
		case *TextAggregate:
			out = append(out, AggregateRow{qa.QuestionID, qa.Type, "responses", a.Total, 0})
		default:
			out = append(out, AggregateRow{QuestionID: qa.QuestionID, Type: qa.Type})
		}
	}
	return out
}
