// Package storage persists observed tag values and serves them as
// suggestion sources and registry key lists.
package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/search/keys"
	"github.com/teranos/sqb/search/suggest"
)

// DefaultValueLimit caps a value lookup when the caller passes no limit
const DefaultValueLimit = 1000

// Observation is one sighting of a tag value
type Observation struct {
	Key    string
	Value  string
	SeenAt time.Time
}

// TagStore reads and writes the tag_values table
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a tag store over a migrated database
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

const upsertTagValue = `
	INSERT INTO tag_values (dataset, key, value, times_seen, first_seen, last_seen)
	VALUES (?, ?, ?, 1, ?, ?)
	ON CONFLICT (dataset, key, value) DO UPDATE SET
		times_seen = times_seen + 1,
		first_seen = MIN(first_seen, excluded.first_seen),
		last_seen  = MAX(last_seen, excluded.last_seen)`

// Record stores one observation of key=value in dataset
func (s *TagStore) Record(ctx context.Context, dataset, key, value string, seenAt time.Time) error {
	if err := validateObservation(dataset, key); err != nil {
		return err
	}
	ms := seenAt.UnixMilli()
	if _, err := s.db.ExecContext(ctx, upsertTagValue, dataset, key, value, ms, ms); err != nil {
		return errors.Wrapf(err, "failed to record %s=%s in %s", key, value, dataset)
	}
	return nil
}

// RecordBatch stores observations in one transaction
func (s *TagStore) RecordBatch(ctx context.Context, dataset string, obs []Observation) error {
	for _, o := range obs {
		if err := validateObservation(dataset, o.Key); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertTagValue)
	if err != nil {
		return errors.Wrap(err, "failed to prepare tag value upsert")
	}
	defer stmt.Close()

	for _, o := range obs {
		ms := o.SeenAt.UnixMilli()
		if _, err := stmt.ExecContext(ctx, dataset, o.Key, o.Value, ms, ms); err != nil {
			return errors.Wrapf(err, "failed to record %s=%s in %s", o.Key, o.Value, dataset)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// TagKeys lists every key seen in dataset with its distinct value count.
// An empty dataset lists keys across all datasets.
func (s *TagStore) TagKeys(ctx context.Context, dataset string) ([]keys.TagInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, COUNT(DISTINCT value)
		FROM tag_values
		WHERE (? = '' OR dataset = ?)
		GROUP BY key
		ORDER BY key`, dataset, dataset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tag keys")
	}
	defer rows.Close()

	var out []keys.TagInfo
	for rows.Next() {
		var info keys.TagInfo
		if err := rows.Scan(&info.Key, &info.TotalValues); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag key")
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tag keys")
	}
	return out, nil
}

// Values returns the values of key in dataset containing query
// (case-insensitive for ASCII), most seen first.
func (s *TagStore) Values(ctx context.Context, dataset, key, query string, limit int) ([]suggest.Value, error) {
	if limit <= 0 {
		limit = DefaultValueLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT value, SUM(times_seen), MAX(last_seen)
		FROM tag_values
		WHERE key = ?
		  AND (? = '' OR dataset = ?)
		  AND value LIKE ? ESCAPE '\'
		GROUP BY value
		ORDER BY 2 DESC, 3 DESC, value
		LIMIT ?`, key, dataset, dataset, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query values for %s", key)
	}
	defer rows.Close()

	out := []suggest.Value{}
	for rows.Next() {
		var (
			v        suggest.Value
			lastSeen int64
		)
		if err := rows.Scan(&v.Value, &v.Count, &lastSeen); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag value")
		}
		v.LastSeen = time.UnixMilli(lastSeen).UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tag values")
	}
	return out, nil
}

// Source exposes one dataset as a suggestion source
func (s *TagStore) Source(dataset string, limit int) suggest.Source {
	return datasetSource{store: s, dataset: dataset, limit: limit}
}

// Sources exposes each dataset as its own suggestion source
func (s *TagStore) Sources(datasets []string, limit int) []suggest.Source {
	out := make([]suggest.Source, 0, len(datasets))
	for _, d := range datasets {
		out = append(out, s.Source(d, limit))
	}
	return out
}

type datasetSource struct {
	store   *TagStore
	dataset string
	limit   int
}

func (d datasetSource) Name() string { return d.dataset }

func (d datasetSource) Values(ctx context.Context, key, query string) ([]suggest.Value, error) {
	return d.store.Values(ctx, d.dataset, key, query, d.limit)
}

func validateObservation(dataset, key string) error {
	if strings.TrimSpace(dataset) == "" {
		return errors.NewInvalidRequestError("dataset cannot be empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.NewInvalidRequestError("tag key cannot be empty")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
