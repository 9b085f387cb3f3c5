package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/obe-survey/internal/services"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "obe.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func intp(v int) *int { return &v }

func sampleSurvey(id string, created time.Time) *services.Survey {
	return &services.Survey{
		ID:        id,
		TenantID:  "t1",
		Title:     "Exit survey " + id,
		CourseID:  "CS101",
		CreatedAt: created,
		UpdatedAt: created,
		Questions: []*services.Question{
			{ID: "clo1", Type: services.TypeLikert, Prompt: "CLO1", Required: true, Position: 0},
			{ID: "rate", Type: services.TypeRating, Prompt: "Overall", MinValue: intp(1), MaxValue: intp(5), Position: 1},
			{ID: "topics", Type: services.TypeMultiChoice, Prompt: "Topics", Options: []string{"Graphs", "Trees"}, Position: 2},
		},
	}
}

func TestSQLiteSurveyRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	created := time.Date(2025, 9, 18, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertSurvey(ctx, sampleSurvey("s1", created)))
	require.NoError(t, store.InsertSurvey(ctx, sampleSurvey("s2", created.Add(time.Hour))))
	err := store.InsertSurvey(ctx, sampleSurvey("s1", created))
	assert.True(t, errors.Is(err, ErrDuplicate))

	got, err := store.GetSurvey(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CS101", got.CourseID)
	assert.True(t, created.Equal(got.CreatedAt))
	require.Len(t, got.Questions, 3)
	assert.Equal(t, services.TypeLikert, got.Questions[0].Type)
	assert.Nil(t, got.Questions[0].MinValue)
	assert.Equal(t, 5, *got.Questions[1].MaxValue)
	assert.Equal(t, []string{"Graphs", "Trees"}, got.Questions[2].Options)

	missing, err := store.GetSurvey(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := store.ListSurveys(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Len(t, list[1].Questions, 3)

	got.Title = "Renamed"
	got.Questions = got.Questions[1:]
	require.NoError(t, store.UpdateSurvey(ctx, got))
	again, err := store.GetSurvey(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Title)
	require.Len(t, again.Questions, 2)
	assert.Equal(t, "rate", again.Questions[0].ID)
}

func TestSQLiteSubmissions(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2025, 9, 18, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertSurvey(ctx, sampleSurvey("s1", base)))

	subs := []*services.Submission{
		{ID: "b", SurveyID: "s1", SubmittedAt: base.Add(2 * time.Second), Answers: []services.Response{
			{QuestionID: "rate", Value: services.NumberValue(4)},
		}},
		{ID: "a", SurveyID: "s1", Respondent: "r1", Locale: "zh", SubmittedAt: base.Add(time.Second), Answers: []services.Response{
			{QuestionID: "clo1", Value: services.TextValue("Agree")},
			{QuestionID: "topics", Value: services.ListValue("Graphs", "Trees")},
		}},
		{ID: "c", SurveyID: "s1", SubmittedAt: base.Add(3 * time.Second)},
	}
	for _, sub := range subs {
		require.NoError(t, store.AddSubmission(ctx, sub))
	}

	got, err := store.ListSubmissions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "zh", got[0].Locale)
	require.Len(t, got[0].Answers, 2)
	assert.Equal(t, []string{"Graphs", "Trees"}, got[0].Answers[1].Value.Labels())
	n, ok := got[1].Answers[0].Value.Number()
	assert.True(t, ok)
	assert.Equal(t, 4.0, n)
	assert.Empty(t, got[2].Answers)

	removed, err := store.DeleteSubmissionsBySurvey(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	require.NoError(t, store.DeleteSurvey(ctx, "s1"))
	sv, err := store.GetSurvey(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, sv)
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.AddTenant(ctx, &services.Tenant{ID: "t1", Name: "Faculty"}))
	u := &services.User{ID: "u1", Email: "Instructor@Example.edu", PassHash: []byte("hash"), TenantID: "t1", CreatedAt: time.Now()}
	require.NoError(t, store.AddUser(ctx, u))
	assert.True(t, errors.Is(store.AddUser(ctx, &services.User{ID: "u2", Email: "instructor@example.edu", TenantID: "t1", PassHash: []byte("x")}), ErrDuplicate))

	found, err := store.FindUserByEmail(ctx, " INSTRUCTOR@example.edu ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.ID)
	assert.Equal(t, []byte("hash"), found.PassHash)

	none, err := store.FindUserByEmail(ctx, "nobody@example.edu")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLoadMigrationsFallsBackToEmbedded(t *testing.T) {
	list, err := loadMigrations(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, "0001_init.sql", list[0].name)
}
