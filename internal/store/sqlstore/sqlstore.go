// Package sqlstore implements store.Store over database/sql. Queries are
// written with ? placeholders and rebound for drivers that number them.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mycelian/mycelian-journal/internal/model"
	"github.com/mycelian/mycelian-journal/internal/store"
)

// Placeholder styles.
const (
	Question = iota // ?
	Dollar          // $1
)

// New returns a store over db using the given placeholder style.
func New(db *sql.DB, placeholder int) *Store {
	return &Store{db: db, placeholder: placeholder}
}

// Store is the database/sql backed store.
type Store struct {
	db          *sql.DB
	placeholder int
}

var _ store.Store = (*Store)(nil)

func (s *Store) Entries() store.Entries       { return &entries{s} }
func (s *Store) Embeddings() store.Embeddings { return &embeddings{s} }

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

func (s *Store) rebind(q string) string {
	if s.placeholder != Dollar {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(q), args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(q), args...)
}

// --- Entries ---
type entries struct{ s *Store }

const entryColumns = `entry_id, user_id, content, mood_score, emotions, sentiment, facial_analysis,
        ai_insight, ai_recommendations, creation_time, enriched_time`

func (r *entries) Create(ctx context.Context, e *model.JournalEntry) (*model.JournalEntry, error) {
	if err := model.RequireUserID(e.UserID); err != nil {
		return nil, err
	}
	out := *e
	if out.EntryID == "" {
		out.EntryID = uuid.New().String()
	}
	if out.CreationTime.IsZero() {
		out.CreationTime = time.Now().UTC()
	}
	out.AIInsight, out.AIRecommendations, out.EnrichedTime = nil, nil, nil

	emotions, err := marshalNullable(out.Emotions, len(out.Emotions) > 0)
	if err != nil {
		return nil, err
	}
	sentiment, err := marshalNullable(out.Sentiment, out.Sentiment != nil)
	if err != nil {
		return nil, err
	}
	facial, err := marshalNullable(out.FacialAnalysis, out.FacialAnalysis != nil)
	if err != nil {
		return nil, err
	}

	_, err = r.s.exec(ctx, `
        INSERT INTO journal_entries (entry_id, user_id, content, mood_score, emotions, sentiment,
            facial_analysis, creation_time)
        VALUES (?,?,?,?,?,?,?,?)
    `, out.EntryID, out.UserID, out.Content, nullableInt(out.MoodScore), emotions, sentiment, facial,
		out.CreationTime.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	out.CreationTime = time.Unix(0, out.CreationTime.UnixNano()).UTC()
	return &out, nil
}

func (r *entries) GetByID(ctx context.Context, userID, entryID string) (*model.JournalEntry, error) {
	if err := model.RequireUserID(userID); err != nil {
		return nil, err
	}
	row := r.s.queryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE user_id=? AND entry_id=?`, userID, entryID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", entryID, model.ErrNotFound)
	}
	return e, err
}

func (r *entries) List(ctx context.Context, req model.ListEntriesRequest) ([]*model.JournalEntry, error) {
	if err := model.RequireUserID(req.UserID); err != nil {
		return nil, err
	}
	q := `SELECT ` + entryColumns + ` FROM journal_entries WHERE user_id=?`
	args := []any{req.UserID}
	if req.Before != nil {
		q += ` AND creation_time < ?`
		args = append(args, req.Before.UnixNano())
	}
	if req.After != nil {
		q += ` AND creation_time > ?`
		args = append(args, req.After.UnixNano())
	}
	q += ` ORDER BY creation_time DESC, entry_id DESC`
	if req.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, req.Limit)
	}

	rows, err := r.s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *entries) Recent(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	if limit <= 0 {
		return nil, model.NewValidationError("limit", "must be positive")
	}
	return r.List(ctx, model.ListEntriesRequest{UserID: userID, Limit: limit})
}

func (r *entries) UpdateEnrichment(ctx context.Context, userID, entryID string, en model.Enrichment) (*model.JournalEntry, error) {
	if err := model.RequireUserID(userID); err != nil {
		return nil, err
	}
	recs, err := json.Marshal(en.AIRecommendations)
	if err != nil {
		return nil, err
	}
	res, err := r.s.exec(ctx, `
        UPDATE journal_entries SET ai_insight=?, ai_recommendations=?, enriched_time=?
        WHERE user_id=? AND entry_id=? AND enriched_time IS NULL
    `, en.AIInsight, string(recs), time.Now().UTC().UnixNano(), userID, entryID)
	if err != nil {
		return nil, fmt.Errorf("update journal entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, userID, entryID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("entry %s already enriched: %w", entryID, model.ErrConflict)
	}
	return r.GetByID(ctx, userID, entryID)
}

func (r *entries) DeleteByID(ctx context.Context, userID, entryID string) error {
	if err := model.RequireUserID(userID); err != nil {
		return err
	}
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, r.s.rebind(`DELETE FROM entry_embeddings WHERE user_id=? AND entry_id=?`), userID, entryID); err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	res, err := tx.ExecContext(ctx, r.s.rebind(`DELETE FROM journal_entries WHERE user_id=? AND entry_id=?`), userID, entryID)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", entryID, model.ErrNotFound)
	}
	return tx.Commit()
}

type scanner interface{ Scan(dest ...any) error }

func scanEntry(sc scanner) (*model.JournalEntry, error) {
	var (
		e                                    model.JournalEntry
		mood                                 sql.NullInt64
		emotions, sentiment, facial, insight sql.NullString
		recs                                 sql.NullString
		created                              int64
		enriched                             sql.NullInt64
	)
	if err := sc.Scan(&e.EntryID, &e.UserID, &e.Content, &mood, &emotions, &sentiment, &facial,
		&insight, &recs, &created, &enriched); err != nil {
		return nil, err
	}
	if mood.Valid {
		v := int(mood.Int64)
		e.MoodScore = &v
	}
	if err := unmarshalNullable(emotions, &e.Emotions); err != nil {
		return nil, err
	}
	if sentiment.Valid {
		e.Sentiment = &model.SentimentResult{}
		if err := json.Unmarshal([]byte(sentiment.String), e.Sentiment); err != nil {
			return nil, fmt.Errorf("decode sentiment: %w", err)
		}
	}
	if facial.Valid {
		e.FacialAnalysis = &model.FacialResult{}
		if err := json.Unmarshal([]byte(facial.String), e.FacialAnalysis); err != nil {
			return nil, fmt.Errorf("decode facial analysis: %w", err)
		}
	}
	if insight.Valid {
		s := insight.String
		e.AIInsight = &s
	}
	if err := unmarshalNullable(recs, &e.AIRecommendations); err != nil {
		return nil, err
	}
	e.CreationTime = time.Unix(0, created).UTC()
	if enriched.Valid {
		t := time.Unix(0, enriched.Int64).UTC()
		e.EnrichedTime = &t
	}
	return &e, nil
}

// --- Embeddings ---
type embeddings struct{ s *Store }

func (r *embeddings) Put(ctx context.Context, rec *model.EmbeddingRecord) error {
	if err := model.RequireUserID(rec.UserID); err != nil {
		return err
	}
	if rec.EntryID == "" {
		return model.NewValidationError("entryId", "is required")
	}
	var owner string
	err := r.s.queryRow(ctx, `SELECT user_id FROM journal_entries WHERE entry_id=?`, rec.EntryID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != rec.UserID) {
		return fmt.Errorf("entry %s: %w", rec.EntryID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup entry: %w", err)
	}

	vec, err := json.Marshal(rec.Vector)
	if err != nil {
		return err
	}
	_, err = r.s.exec(ctx, `
        INSERT INTO entry_embeddings (entry_id, user_id, vector, model_version, creation_time)
        VALUES (?,?,?,?,?)
        ON CONFLICT (entry_id) DO UPDATE SET vector=excluded.vector, model_version=excluded.model_version
    `, rec.EntryID, rec.UserID, string(vec), rec.ModelVersion, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}
	return nil
}

func (r *embeddings) Get(ctx context.Context, userID, entryID string) (*model.EmbeddingRecord, error) {
	if err := model.RequireUserID(userID); err != nil {
		return nil, err
	}
	var (
		out model.EmbeddingRecord
		vec string
	)
	err := r.s.queryRow(ctx, `
        SELECT entry_id, user_id, vector, model_version FROM entry_embeddings WHERE user_id=? AND entry_id=?
    `, userID, entryID).Scan(&out.EntryID, &out.UserID, &vec, &out.ModelVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("embedding %s: %w", entryID, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(vec), &out.Vector); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return &out, nil
}

func (r *embeddings) ListByUser(ctx context.Context, userID, modelVersion string) ([]*model.IndexedEntry, error) {
	if err := model.RequireUserID(userID); err != nil {
		return nil, err
	}
	rows, err := r.s.query(ctx, `
        SELECT v.entry_id, v.user_id, v.vector, v.model_version, e.content, e.mood_score, e.creation_time
        FROM entry_embeddings v
        JOIN journal_entries e ON e.entry_id = v.entry_id
        WHERE v.user_id=? AND e.user_id=? AND v.model_version=?
        ORDER BY e.creation_time DESC
    `, userID, userID, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.IndexedEntry
	for rows.Next() {
		var (
			ie      model.IndexedEntry
			vec     string
			mood    sql.NullInt64
			created int64
		)
		if err := rows.Scan(&ie.EntryID, &ie.UserID, &vec, &ie.ModelVersion, &ie.Content, &mood, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vec), &ie.Vector); err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", ie.EntryID, err)
		}
		if mood.Valid {
			v := int(mood.Int64)
			ie.MoodScore = &v
		}
		ie.CreationTime = time.Unix(0, created).UTC()
		out = append(out, &ie)
	}
	return out, rows.Err()
}

func (r *embeddings) CountByUser(ctx context.Context, userID, modelVersion string) (int, error) {
	if err := model.RequireUserID(userID); err != nil {
		return 0, err
	}
	var n int
	err := r.s.queryRow(ctx, `
        SELECT COUNT(*)
        FROM entry_embeddings v
        JOIN journal_entries e ON e.entry_id = v.entry_id
        WHERE v.user_id=? AND e.user_id=? AND v.model_version=?
    `, userID, userID, modelVersion).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

func (r *embeddings) MissingEntries(ctx context.Context, modelVersion string, limit int) ([]*model.JournalEntry, error) {
	if limit <= 0 {
		return nil, model.NewValidationError("limit", "must be positive")
	}
	rows, err := r.s.query(ctx, `
        SELECT `+entryColumns+` FROM journal_entries
        WHERE NOT EXISTS (
            SELECT 1 FROM entry_embeddings v
            WHERE v.entry_id = journal_entries.entry_id AND v.model_version=?
        )
        ORDER BY creation_time ASC, entry_id ASC
        LIMIT ?
    `, modelVersion, limit)
	if err != nil {
		return nil, fmt.Errorf("query missing embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func marshalNullable(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalNullable(ns sql.NullString, dst any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), dst)
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
