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
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process implementation of Store with the
// same optimistic-commit semantics as the postgres store. The mutex is held
// only while reading or committing, never across the transaction body, so
// concurrent transactions genuinely race on the version checks.
type MemoryStore struct {
	mu         sync.Mutex
	docs       map[string]Document
	maxRetries int
}

func NewMemoryStore(maxRetries int) *MemoryStore {
	return &MemoryStore{
		docs:       make(map[string]Document),
		maxRetries: maxRetries,
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error {
	return runWithRetry(ctx, s.maxRetries, func() error {
		return s.attempt(ctx, fn)
	})
}

func (s *MemoryStore) attempt(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error {
	txn := &memoryTxn{store: s, reads: make(map[string]int64)}
	if err := fn(ctx, txn); err != nil {
		return err
	}
	return s.commit(txn)
}

type memoryTxn struct {
	store  *MemoryStore
	reads  map[string]int64
	writes []stagedWrite
}

func (t *memoryTxn) Get(_ context.Context, collection, key string, out interface{}) error {
	t.store.mu.Lock()
	doc, ok := t.store.docs[docKey(collection, key)]
	t.store.mu.Unlock()

	if !ok {
		t.reads[docKey(collection, key)] = 0
		return ErrNotFound
	}
	t.reads[docKey(collection, key)] = doc.Version
	if out == nil {
		return nil
	}
	return json.Unmarshal(doc.Data, out)
}

func (t *memoryTxn) Put(collection, key string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	t.writes = append(t.writes, stagedWrite{collection: collection, key: key, data: data})
	return nil
}

func (s *MemoryStore) commit(t *memoryTxn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole read set before touching anything.
	for read, version := range t.reads {
		current, ok := s.docs[read]
		if !ok {
			if version != 0 {
				return ErrConflict
			}
			continue
		}
		if current.Version != version {
			return ErrConflict
		}
	}

	for _, w := range t.writes {
		key := docKey(w.collection, w.key)
		existing, ok := s.docs[key]
		if ok {
			s.docs[key] = Document{
				Collection: w.collection,
				Key:        w.key,
				Data:       w.data,
				Version:    existing.Version + 1,
				CreatedAt:  existing.CreatedAt,
			}
			continue
		}
		s.docs[key] = Document{
			Collection: w.collection,
			Key:        w.key,
			Data:       w.data,
			Version:    1,
			CreatedAt:  time.Now(),
		}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, collection, key string, out interface{}) error {
	s.mu.Lock()
	doc, ok := s.docs[docKey(collection, key)]
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(doc.Data, out)
}

func (s *MemoryStore) Put(_ context.Context, collection, key string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := docKey(collection, key)
	existing, ok := s.docs[k]
	version := int64(1)
	createdAt := time.Now()
	if ok {
		version = existing.Version + 1
		createdAt = existing.CreatedAt
	}
	s.docs[k] = Document{Collection: collection, Key: key, Data: data, Version: version, CreatedAt: createdAt}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	s.mu.Lock()
	var matches []Document
	for _, doc := range s.docs {
		if doc.Collection == collection && matchQuery(doc, q) {
			matches = append(matches, doc)
		}
	}
	s.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		if q.Descending {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return matches, nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string, q Query) (int64, error) {
	noLimit := q
	noLimit.Limit = 0
	docs, err := s.Query(ctx, collection, noLimit)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func matchQuery(doc Document, q Query) bool {
	if !q.Since.IsZero() && doc.CreatedAt.Before(q.Since) {
		return false
	}
	if len(q.Eq) == 0 {
		return true
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return false
	}
	for field, want := range q.Eq {
		value, ok := fields[field]
		if !ok {
			return false
		}
		str, ok := value.(string)
		if !ok || str != want {
			return false
		}
	}
	return true
}
