package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/obe-survey/internal/api"
	"github.com/soaringjerry/obe-survey/internal/services"
)

// ErrDuplicate is returned when an insert collides with an existing key.
var ErrDuplicate = errors.New("duplicate record")

type SQLiteStore struct {
	db *sql.DB
}

var _ api.Store = (*SQLiteStore)(nil)

// OpenSQLite opens the database file at path, applies the pragmas and runs
// the migrations.
func OpenSQLite(ctx context.Context, path, migrationsDir string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store, err := NewSQLiteStore(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := RunMigrations(ctx, conn, migrationsDir); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return store, nil
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func toNullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func fromNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// timestamps are stored fixed-width so that text order is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (s *SQLiteStore) rollback(tx *sql.Tx, op string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logErr(op+": rollback", err)
	}
}

// --- Surveys ---

func (s *SQLiteStore) InsertSurvey(ctx context.Context, sv *services.Survey) error {
	if sv == nil || strings.TrimSpace(sv.ID) == "" {
		return errors.New("invalid survey")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer s.rollback(tx, "InsertSurvey")
	_, err = tx.ExecContext(ctx, `INSERT INTO surveys (id, tenant_id, title, description, course_id, created_at, updated_at)
      VALUES (?, ?, ?, ?, ?, ?, ?)`, sv.ID, sv.TenantID, sv.Title, toNullString(sv.Description), toNullString(sv.CourseID),
		formatTime(sv.CreatedAt), formatTime(sv.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("survey %s: %w", sv.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert survey: %w", err)
	}
	if err := insertQuestions(ctx, tx, sv.ID, sv.Questions); err != nil {
		return err
	}
	return tx.Commit()
}

func insertQuestions(ctx context.Context, tx *sql.Tx, surveyID string, qs []*services.Question) error {
	for i, q := range qs {
		var opts sql.NullString
		if len(q.Options) > 0 {
			b, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("encode options of %s: %w", q.ID, err)
			}
			opts = sql.NullString{String: string(b), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO questions (survey_id, id, position, type, prompt, options, required, min_value, max_value, reverse_scored)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, surveyID, q.ID, i, string(q.Type), q.Prompt, opts,
			boolToInt64(q.Required), toNullInt(q.MinValue), toNullInt(q.MaxValue), boolToInt64(q.ReverseScored))
		if err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetSurvey(ctx context.Context, id string) (*services.Survey, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, tenant_id, title, description, course_id, created_at, updated_at
      FROM surveys WHERE id = ?`, id)
	sv, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if sv.Questions, err = s.listQuestions(ctx, sv.ID); err != nil {
		return nil, err
	}
	return sv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (*services.Survey, error) {
	var sv services.Survey
	var desc, course sql.NullString
	var created, updated string
	if err := row.Scan(&sv.ID, &sv.TenantID, &sv.Title, &desc, &course, &created, &updated); err != nil {
		return nil, err
	}
	sv.Description = desc.String
	sv.CourseID = course.String
	sv.CreatedAt = parseTime(created)
	sv.UpdatedAt = parseTime(updated)
	return &sv, nil
}

func (s *SQLiteStore) listQuestions(ctx context.Context, surveyID string) ([]*services.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, position, type, prompt, options, required, min_value, max_value, reverse_scored
      FROM questions WHERE survey_id = ? ORDER BY position ASC`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("listQuestions: rows.Close", cerr)
		}
	}()
	out := []*services.Question{}
	for rows.Next() {
		var q services.Question
		var typ string
		var opts sql.NullString
		var required, reverse int64
		var lo, hi sql.NullInt64
		if err := rows.Scan(&q.ID, &q.Position, &typ, &q.Prompt, &opts, &required, &lo, &hi, &reverse); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = services.QuestionType(typ)
		q.Required = required != 0
		q.ReverseScored = reverse != 0
		q.MinValue = fromNullInt(lo)
		q.MaxValue = fromNullInt(hi)
		if opts.Valid && opts.String != "" {
			if err := json.Unmarshal([]byte(opts.String), &q.Options); err != nil {
				s.logErr("listQuestions: options of "+q.ID, err)
			}
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListSurveys(ctx context.Context, tenantID string) ([]*services.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, tenant_id, title, description, course_id, created_at, updated_at
      FROM surveys WHERE tenant_id = ? ORDER BY created_at ASC, id ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	var out []*services.Survey
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, sv)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if cerr := rows.Close(); cerr != nil {
		s.logErr("ListSurveys: rows.Close", cerr)
	}
	// questions are loaded after the cursor is closed; a single connection
	// cannot serve a nested query
	for _, sv := range out {
		if sv.Questions, err = s.listQuestions(ctx, sv.ID); err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = []*services.Survey{}
	}
	return out, nil
}

// UpdateSurvey rewrites the survey row and replaces its question list.
func (s *SQLiteStore) UpdateSurvey(ctx context.Context, sv *services.Survey) error {
	if sv == nil {
		return errors.New("invalid survey")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer s.rollback(tx, "UpdateSurvey")
	res, err := tx.ExecContext(ctx, `UPDATE surveys SET tenant_id = ?, title = ?, description = ?, course_id = ?, updated_at = ?
      WHERE id = ?`, sv.TenantID, sv.Title, toNullString(sv.Description), toNullString(sv.CourseID), formatTime(sv.UpdatedAt), sv.ID)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update survey %s: %w", sv.ID, sql.ErrNoRows)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE survey_id = ?`, sv.ID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	if err := insertQuestions(ctx, tx, sv.ID, sv.Questions); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteSurvey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = ?`, id)
	s.logErr("DeleteSurvey", err)
	return err
}

// --- Submissions ---

func (s *SQLiteStore) AddSubmission(ctx context.Context, sub *services.Submission) error {
	if sub == nil || strings.TrimSpace(sub.ID) == "" {
		return errors.New("invalid submission")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer s.rollback(tx, "AddSubmission")
	_, err = tx.ExecContext(ctx, `INSERT INTO submissions (id, survey_id, respondent, locale, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.SurveyID, toNullString(sub.Respondent), toNullString(sub.Locale), formatTime(sub.SubmittedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("submission %s: %w", sub.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	for i, ans := range sub.Answers {
		raw, err := json.Marshal(ans.Value)
		if err != nil {
			return fmt.Errorf("encode answer %s: %w", ans.QuestionID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO answers (submission_id, seq, question_id, value) VALUES (?, ?, ?, ?)`,
			sub.ID, i, ans.QuestionID, string(raw)); err != nil {
			return fmt.Errorf("insert answer %s: %w", ans.QuestionID, err)
		}
	}
	return tx.Commit()
}

// ListSubmissions returns the submissions of a survey in submission order
// with their answers.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, surveyID string) ([]*services.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.id, s.respondent, s.locale, s.submitted_at, a.question_id, a.value
      FROM submissions s LEFT JOIN answers a ON a.submission_id = s.id
      WHERE s.survey_id = ? ORDER BY s.submitted_at ASC, s.id ASC, a.seq ASC`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logErr("ListSubmissions: rows.Close", cerr)
		}
	}()
	out := []*services.Submission{}
	var cur *services.Submission
	for rows.Next() {
		var id, submitted string
		var respondent, locale, qid, value sql.NullString
		if err := rows.Scan(&id, &respondent, &locale, &submitted, &qid, &value); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if cur == nil || cur.ID != id {
			cur = &services.Submission{
				ID:          id,
				SurveyID:    surveyID,
				Respondent:  respondent.String,
				Locale:      locale.String,
				Answers:     []services.Response{},
				SubmittedAt: parseTime(submitted),
			}
			out = append(out, cur)
		}
		if !qid.Valid {
			continue
		}
		ans := services.Response{QuestionID: qid.String}
		if err := json.Unmarshal([]byte(value.String), &ans.Value); err != nil {
			s.logErr("ListSubmissions: value of "+qid.String, err)
		}
		cur.Answers = append(cur.Answers, ans)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteSubmissionsBySurvey(ctx context.Context, surveyID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE survey_id = ?`, surveyID)
	if err != nil {
		return 0, fmt.Errorf("delete submissions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// --- Tenants & users ---

func (s *SQLiteStore) AddTenant(ctx context.Context, t *services.Tenant) error {
	if t == nil || strings.TrimSpace(t.ID) == "" {
		return errors.New("invalid tenant")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tenants (id, name) VALUES (?, ?)`, t.ID, t.Name)
	if isUniqueViolation(err) {
		return fmt.Errorf("tenant %s: %w", t.ID, ErrDuplicate)
	}
	return err
}

func (s *SQLiteStore) AddUser(ctx context.Context, u *services.User) error {
	if u == nil || strings.TrimSpace(u.Email) == "" {
		return errors.New("invalid user")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, email, pass_hash, tenant_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.PassHash, u.TenantID, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
	}
	return err
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*services.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, email, pass_hash, tenant_id, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	var u services.User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.TenantID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}
