/*
Copyright 2026 NexusBank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
)

// PostgresStore keeps every collection in one nexus.documents table:
// (collection, key) primary key, jsonb body, version counter, created_at.
// Conflict detection is the version column; no row locks are held across
// the read-modify-write cycle.
type PostgresStore struct {
	conn       *sql.DB
	maxRetries int
}

// Open connects to postgres and verifies the connection. The store has an
// explicit lifecycle: callers own it and must Close it.
func Open(dsn string, maxRetries int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.Ping(); err != nil {
		logrus.Errorf("database connection error ❌: %v", err)
		return nil, errors.Wrap(err, "database ping failed")
	}
	return NewPostgresStore(db, maxRetries), nil
}

// NewPostgresStore wraps an existing connection. Used by tests with a stub
// driver.
func NewPostgresStore(conn *sql.DB, maxRetries int) *PostgresStore {
	return &PostgresStore{conn: conn, maxRetries: maxRetries}
}

func (s *PostgresStore) Close() error {
	return s.conn.Close()
}

// ConnDB exposes the raw connection for migrations.
func (s *PostgresStore) ConnDB() *sql.DB {
	return s.conn
}

func (s *PostgresStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error {
	return runWithRetry(ctx, s.maxRetries, func() error {
		return s.attempt(ctx, fn)
	})
}

func (s *PostgresStore) attempt(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	txn := &postgresTxn{tx: tx, reads: make(map[string]int64)}
	if err := fn(ctx, txn); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := txn.commitStaged(ctx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapPqError(err)
	}
	return nil
}

type stagedWrite struct {
	collection string
	key        string
	data       []byte
}

type postgresTxn struct {
	tx     *sql.Tx
	reads  map[string]int64 // docKey -> version at read time, 0 when absent
	writes []stagedWrite
}

func docKey(collection, key string) string {
	return collection + "/" + key
}

func (t *postgresTxn) Get(ctx context.Context, collection, key string, out interface{}) error {
	row := t.tx.QueryRowContext(ctx,
		`SELECT data, version FROM nexus.documents WHERE collection = $1 AND key = $2`,
		collection, key)

	var data []byte
	var version int64
	err := row.Scan(&data, &version)
	if err == sql.ErrNoRows {
		t.reads[docKey(collection, key)] = 0
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	t.reads[docKey(collection, key)] = version
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (t *postgresTxn) Put(collection, key string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	t.writes = append(t.writes, stagedWrite{collection: collection, key: key, data: data})
	return nil
}

// commitStaged re-validates the read set and applies staged writes. Written
// documents are guarded by a conditional update on their read version;
// read-only documents are re-checked under FOR SHARE so a concurrent writer
// cannot slip between validation and commit.
func (t *postgresTxn) commitStaged(ctx context.Context) error {
	written := make(map[string]bool, len(t.writes))
	for _, w := range t.writes {
		written[docKey(w.collection, w.key)] = true
	}

	for read, version := range t.reads {
		if written[read] {
			continue
		}
		parts := strings.SplitN(read, "/", 2)
		var current int64
		err := t.tx.QueryRowContext(ctx,
			`SELECT version FROM nexus.documents WHERE collection = $1 AND key = $2 FOR SHARE`,
			parts[0], parts[1]).Scan(&current)
		if err == sql.ErrNoRows {
			if version != 0 {
				return ErrConflict
			}
			continue
		}
		if err != nil {
			return mapPqError(err)
		}
		if current != version {
			return ErrConflict
		}
	}

	for _, w := range t.writes {
		readVersion, wasRead := t.reads[docKey(w.collection, w.key)]
		if wasRead && readVersion > 0 {
			res, err := t.tx.ExecContext(ctx,
				`UPDATE nexus.documents SET data = $1, version = version + 1
				 WHERE collection = $2 AND key = $3 AND version = $4`,
				w.data, w.collection, w.key, readVersion)
			if err != nil {
				return mapPqError(err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected != 1 {
				return ErrConflict
			}
			continue
		}

		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO nexus.documents (collection, key, data, version, created_at)
			 VALUES ($1, $2, $3, 1, NOW())`,
			w.collection, w.key, w.data)
		if err != nil {
			return mapPqError(err)
		}
	}
	return nil
}

func mapPqError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case pqUniqueViolation, pqSerializationFailure:
			return ErrConflict
		}
	}
	return err
}

func (s *PostgresStore) Get(ctx context.Context, collection, key string, out interface{}) error {
	row := s.conn.QueryRowContext(ctx,
		`SELECT data FROM nexus.documents WHERE collection = $1 AND key = $2`,
		collection, key)

	var data []byte
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Put writes a document outside of any transaction. Inserts start at version 1;
// overwrites bump the version so concurrent atomic transactions still notice.
func (s *PostgresStore) Put(ctx context.Context, collection, key string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO nexus.documents (collection, key, data, version, created_at)
		 VALUES ($1, $2, $3, 1, NOW())
		 ON CONFLICT (collection, key)
		 DO UPDATE SET data = EXCLUDED.data, version = nexus.documents.version + 1`,
		collection, key, data)
	return err
}

func (s *PostgresStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	query, args := buildSelect("key, data, version, created_at", collection, q, true)
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logrus.Error(err)
		}
	}()

	var docs []Document
	for rows.Next() {
		doc := Document{Collection: collection}
		if err := rows.Scan(&doc.Key, &doc.Data, &doc.Version, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context, collection string, q Query) (int64, error) {
	query, args := buildSelect("COUNT(*)", collection, q, false)
	var count int64
	err := s.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// buildSelect assembles the filtered select. Field names in Eq come from code,
// never from request input, so they are interpolated directly into the
// jsonb accessor; values go through placeholders.
func buildSelect(columns, collection string, q Query, ordered bool) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{collection}

	sb.WriteString(fmt.Sprintf("SELECT %s FROM nexus.documents WHERE collection = $1", columns))

	fields := make([]string, 0, len(q.Eq))
	for field := range q.Eq {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		args = append(args, q.Eq[field])
		sb.WriteString(fmt.Sprintf(" AND data->>'%s' = $%d", field, len(args)))
	}

	if !q.Since.IsZero() {
		args = append(args, q.Since)
		sb.WriteString(fmt.Sprintf(" AND created_at >= $%d", len(args)))
	}

	if ordered {
		if q.Descending {
			sb.WriteString(" ORDER BY created_at DESC")
		} else {
			sb.WriteString(" ORDER BY created_at ASC")
		}
		if q.Limit > 0 {
			args = append(args, q.Limit)
			sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
		}
	}

	return sb.String(), args
}
