package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/obe-survey/internal/services"
)

func TestSubmissionDocumentKeepsValueShapes(t *testing.T) {
	sub := &services.Submission{
		ID:       "sub1",
		SurveyID: "s1",
		Answers: []services.Response{
			{QuestionID: "topics", Value: services.ListValue("Graphs", "Trees")},
			{QuestionID: "rate", Value: services.NumberValue(4)},
			{QuestionID: "note", Value: services.TextValue("4")},
		},
		SubmittedAt: time.Date(2025, 9, 18, 8, 0, 0, 0, time.FixedZone("MYT", 8*3600)),
	}
	doc, err := toSubmissionDocument(sub)
	require.NoError(t, err)
	assert.Equal(t, `["Graphs","Trees"]`, doc.Answers[0].Value)
	assert.Equal(t, time.UTC, doc.SubmittedAt.Location())

	back := doc.toSubmission()
	require.Len(t, back.Answers, 3)
	assert.True(t, back.Answers[0].Value.IsList())
	assert.False(t, back.Answers[2].Value.IsList())
	assert.Equal(t, "4", back.Answers[2].Value.String())
	assert.Equal(t, doc.Answers[1].Value, "4")
}

func TestSurveyDocumentRenumbersQuestions(t *testing.T) {
	sv := sampleSurvey("s1", time.Now())
	sv.Questions[0].Position = 7
	doc := toSurveyDocument(sv)
	assert.Equal(t, 0, doc.Questions[0].Position)
	assert.Equal(t, 2, doc.Questions[2].Position)
	assert.Equal(t, 5, *doc.toSurvey().Questions[1].MaxValue)
}

// Runs against a real server when OBE_TEST_MONGO_URI is set.
func TestMongoStoreAgainstServer(t *testing.T) {
	uri := os.Getenv("OBE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("OBE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	store, err := ConnectMongo(ctx, uri, "obe_test_"+uuid.NewString()[:8], 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.surveys.Database().Drop(ctx)
		_ = store.Close(ctx)
	})

	sv := sampleSurvey("s1", time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, store.InsertSurvey(ctx, sv))
	got, err := store.GetSurvey(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Questions, 3)

	require.NoError(t, store.AddSubmission(ctx, &services.Submission{ID: "a", SurveyID: "s1", SubmittedAt: time.Now(), Answers: []services.Response{
		{QuestionID: "clo1", Value: services.TextValue("Agree")},
	}}))
	subs, err := store.ListSubmissions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Agree", subs[0].Answers[0].Value.String())

	n, err := store.DeleteSubmissionsBySurvey(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
