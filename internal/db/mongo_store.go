package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/soaringjerry/obe-survey/internal/api"
	"github.com/soaringjerry/obe-survey/internal/services"
)

const (
	surveysCollection     = "surveys"
	submissionsCollection = "submissions"
	usersCollection       = "users"
	tenantsCollection     = "tenants"
)

// MongoStore keeps surveys with embedded questions and submissions with
// embedded answers. Answer values are stored as their JSON encoding.
type MongoStore struct {
	client      *mongo.Client
	surveys     *mongo.Collection
	submissions *mongo.Collection
	users       *mongo.Collection
	tenants     *mongo.Collection
}

var _ api.Store = (*MongoStore)(nil)

type questionDocument struct {
	ID       string   `bson:"id"`
	Type     string   `bson:"type"`
	Prompt   string   `bson:"prompt"`
	Options  []string `bson:"options,omitempty"`
	Required bool     `bson:"required"`
	MinValue *int     `bson:"minValue,omitempty"`
	MaxValue *int     `bson:"maxValue,omitempty"`
	Reverse  bool     `bson:"reverseScored,omitempty"`
	Position int      `bson:"position"`
}

type surveyDocument struct {
	ID          string             `bson:"_id"`
	TenantID    string             `bson:"tenantId"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	CourseID    string             `bson:"courseId,omitempty"`
	Questions   []questionDocument `bson:"questions"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type answerDocument struct {
	QuestionID string `bson:"questionId"`
	Value      string `bson:"value"`
}

type submissionDocument struct {
	ID          string           `bson:"_id"`
	SurveyID    string           `bson:"surveyId"`
	Respondent  string           `bson:"respondent,omitempty"`
	Locale      string           `bson:"locale,omitempty"`
	Answers     []answerDocument `bson:"answers"`
	SubmittedAt time.Time        `bson:"submittedAt"`
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	PassHash  []byte    `bson:"passHash"`
	TenantID  string    `bson:"tenantId"`
	CreatedAt time.Time `bson:"createdAt"`
}

type tenantDocument struct {
	ID   string `bson:"_id"`
	Name string `bson:"name"`
}

// ConnectMongo dials uri, pings the server and ensures the indexes.
func ConnectMongo(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	store := NewMongoStore(client, database)
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:      client,
		surveys:     db.Collection(surveysCollection),
		submissions: db.Collection(submissionsCollection),
		users:       db.Collection(usersCollection),
		tenants:     db.Collection(tenantsCollection),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	if _, err := s.surveys.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create surveys index: %w", err)
	}
	if _, err := s.submissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "surveyId", Value: 1}, {Key: "submittedAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create submissions index: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func toSurveyDocument(sv *services.Survey) surveyDocument {
	doc := surveyDocument{
		ID:          sv.ID,
		TenantID:    sv.TenantID,
		Title:       sv.Title,
		Description: sv.Description,
		CourseID:    sv.CourseID,
		Questions:   make([]questionDocument, 0, len(sv.Questions)),
		CreatedAt:   sv.CreatedAt.UTC(),
		UpdatedAt:   sv.UpdatedAt.UTC(),
	}
	for i, q := range sv.Questions {
		doc.Questions = append(doc.Questions, questionDocument{
			ID:       q.ID,
			Type:     string(q.Type),
			Prompt:   q.Prompt,
			Options:  append([]string(nil), q.Options...),
			Required: q.Required,
			MinValue: q.MinValue,
			MaxValue: q.MaxValue,
			Reverse:  q.ReverseScored,
			Position: i,
		})
	}
	return doc
}

func (d surveyDocument) toSurvey() *services.Survey {
	sv := &services.Survey{
		ID:          d.ID,
		TenantID:    d.TenantID,
		Title:       d.Title,
		Description: d.Description,
		CourseID:    d.CourseID,
		Questions:   make([]*services.Question, 0, len(d.Questions)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, q := range d.Questions {
		sv.Questions = append(sv.Questions, &services.Question{
			ID:            q.ID,
			Type:          services.QuestionType(q.Type),
			Prompt:        q.Prompt,
			Options:       q.Options,
			Required:      q.Required,
			MinValue:      q.MinValue,
			MaxValue:      q.MaxValue,
			ReverseScored: q.Reverse,
			Position:      q.Position,
		})
	}
	return sv
}

func toSubmissionDocument(sub *services.Submission) (submissionDocument, error) {
	doc := submissionDocument{
		ID:          sub.ID,
		SurveyID:    sub.SurveyID,
		Respondent:  sub.Respondent,
		Locale:      sub.Locale,
		Answers:     make([]answerDocument, 0, len(sub.Answers)),
		SubmittedAt: sub.SubmittedAt.UTC(),
	}
	for _, ans := range sub.Answers {
		raw, err := json.Marshal(ans.Value)
		if err != nil {
			return doc, fmt.Errorf("encode answer %s: %w", ans.QuestionID, err)
		}
		doc.Answers = append(doc.Answers, answerDocument{QuestionID: ans.QuestionID, Value: string(raw)})
	}
	return doc, nil
}

func (d submissionDocument) toSubmission() *services.Submission {
	sub := &services.Submission{
		ID:          d.ID,
		SurveyID:    d.SurveyID,
		Respondent:  d.Respondent,
		Locale:      d.Locale,
		Answers:     make([]services.Response, 0, len(d.Answers)),
		SubmittedAt: d.SubmittedAt,
	}
	for _, a := range d.Answers {
		ans := services.Response{QuestionID: a.QuestionID}
		if err := json.Unmarshal([]byte(a.Value), &ans.Value); err != nil {
			log.Printf("mongo store: submission %s: value of %s: %v", d.ID, a.QuestionID, err)
		}
		sub.Answers = append(sub.Answers, ans)
	}
	return sub
}

func (s *MongoStore) InsertSurvey(ctx context.Context, sv *services.Survey) error {
	if sv == nil || strings.TrimSpace(sv.ID) == "" {
		return errors.New("invalid survey")
	}
	if _, err := s.surveys.InsertOne(ctx, toSurveyDocument(sv)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("survey %s: %w", sv.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

func (s *MongoStore) GetSurvey(ctx context.Context, id string) (*services.Survey, error) {
	var doc surveyDocument
	if err := s.surveys.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return doc.toSurvey(), nil
}

func (s *MongoStore) ListSurveys(ctx context.Context, tenantID string) ([]*services.Survey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.surveys.Find(ctx, bson.M{"tenantId": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer cursor.Close(ctx)

	out := []*services.Survey{}
	for cursor.Next(ctx) {
		var doc surveyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toSurvey())
	}
	return out, cursor.Err()
}

func (s *MongoStore) UpdateSurvey(ctx context.Context, sv *services.Survey) error {
	if sv == nil {
		return errors.New("invalid survey")
	}
	res, err := s.surveys.ReplaceOne(ctx, bson.M{"_id": sv.ID}, toSurveyDocument(sv))
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update survey %s: %w", sv.ID, mongo.ErrNoDocuments)
	}
	return nil
}

func (s *MongoStore) DeleteSurvey(ctx context.Context, id string) error {
	_, err := s.surveys.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) AddSubmission(ctx context.Context, sub *services.Submission) error {
	if sub == nil || strings.TrimSpace(sub.ID) == "" {
		return errors.New("invalid submission")
	}
	doc, err := toSubmissionDocument(sub)
	if err != nil {
		return err
	}
	if _, err := s.submissions.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("submission %s: %w", sub.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *MongoStore) ListSubmissions(ctx context.Context, surveyID string) ([]*services.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.submissions.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer cursor.Close(ctx)

	out := []*services.Submission{}
	for cursor.Next(ctx) {
		var doc submissionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toSubmission())
	}
	return out, cursor.Err()
}

func (s *MongoStore) DeleteSubmissionsBySurvey(ctx context.Context, surveyID string) (int, error) {
	res, err := s.submissions.DeleteMany(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return 0, fmt.Errorf("delete submissions: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStore) AddTenant(ctx context.Context, t *services.Tenant) error {
	if t == nil || strings.TrimSpace(t.ID) == "" {
		return errors.New("invalid tenant")
	}
	_, err := s.tenants.InsertOne(ctx, tenantDocument{ID: t.ID, Name: t.Name})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("tenant %s: %w", t.ID, ErrDuplicate)
	}
	return err
}

func (s *MongoStore) AddUser(ctx context.Context, u *services.User) error {
	if u == nil || strings.TrimSpace(u.Email) == "" {
		return errors.New("invalid user")
	}
	_, err := s.users.InsertOne(ctx, userDocument{
		ID:        u.ID,
		Email:     strings.ToLower(u.Email),
		PassHash:  u.PassHash,
		TenantID:  u.TenantID,
		CreatedAt: u.CreatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
	}
	return err
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*services.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &services.User{
		ID:        doc.ID,
		Email:     doc.Email,
		PassHash:  doc.PassHash,
		TenantID:  doc.TenantID,
		CreatedAt: doc.CreatedAt,
	}, nil
}
