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

// Package store provides a versioned document store with atomic
// read-modify-write transactions. Every document carries a version number;
// a transaction records the version of each document it reads and commits
// its writes only if those versions are still current. Of two transactions
// with intersecting read sets, at most one commits; the loser is retried a
// bounded number of times before ErrConflict reaches the caller.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a transaction loses a version check, or
	// after its retries are exhausted.
	ErrConflict = errors.New("document version conflict")
)

// Document is a raw stored document plus its bookkeeping columns.
type Document struct {
	Collection string
	Key        string
	Data       json.RawMessage
	Version    int64
	CreatedAt  time.Time
}

// Decode unmarshals the document body into out.
func (d *Document) Decode(out interface{}) error {
	return json.Unmarshal(d.Data, out)
}

// Query selects documents by equality on top-level JSON fields, optionally
// bounded by creation time, ordered by creation time.
type Query struct {
	Eq         map[string]string
	Since      time.Time
	Descending bool
	Limit      int
}

// Txn is the handle passed to the function run inside an atomic transaction.
// Get records the read document in the transaction's read set; Put stages a
// write that becomes visible only if the whole transaction commits.
type Txn interface {
	Get(ctx context.Context, collection, key string, out interface{}) error
	Put(collection, key string, doc interface{}) error
}

// Store is the ledger store contract. RunAtomic executes fn as one atomic
// unit: all of fn's staged writes apply together or not at all.
type Store interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error
	Get(ctx context.Context, collection, key string, out interface{}) error
	Put(ctx context.Context, collection, key string, doc interface{}) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Count(ctx context.Context, collection string, q Query) (int64, error)
	Close() error
}

// runWithRetry drives one optimistic attempt function under exponential
// backoff, retrying only on ErrConflict. Any other error aborts immediately.
func runWithRetry(ctx context.Context, maxRetries int, attempt func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	operation := func() error {
		err := attempt()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
