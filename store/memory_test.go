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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Owner   string `json:"uid"`
	Balance int    `json:"balance"`
	Status  string `json:"status"`
}

func TestMemoryPutGet(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	err := s.Put(ctx, "accounts", "a1", account{Owner: "u1", Balance: 10})
	require.NoError(t, err)

	var got account
	err = s.Get(ctx, "accounts", "a1", &got)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Owner)
	assert.Equal(t, 10, got.Balance)
}

func TestMemoryGetMissing(t *testing.T) {
	s := NewMemoryStore(3)
	var got account
	err := s.Get(context.Background(), "accounts", "nope", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAtomicCommitAppliesAllWrites(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "accounts", "a1", account{Owner: "u1", Balance: 100}))

	err := s.RunAtomic(ctx, func(ctx context.Context, txn Txn) error {
		var a account
		if err := txn.Get(ctx, "accounts", "a1", &a); err != nil {
			return err
		}
		a.Balance -= 40
		if err := txn.Put("accounts", "a1", a); err != nil {
			return err
		}
		return txn.Put("accounts", "a2", account{Owner: "u2", Balance: 40})
	})
	require.NoError(t, err)

	var a1, a2 account
	require.NoError(t, s.Get(ctx, "accounts", "a1", &a1))
	require.NoError(t, s.Get(ctx, "accounts", "a2", &a2))
	assert.Equal(t, 60, a1.Balance)
	assert.Equal(t, 40, a2.Balance)
}

func TestAtomicAbortDiscardsWrites(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "accounts", "a1", account{Owner: "u1", Balance: 100}))

	boom := assert.AnError
	err := s.RunAtomic(ctx, func(ctx context.Context, txn Txn) error {
		var a account
		if err := txn.Get(ctx, "accounts", "a1", &a); err != nil {
			return err
		}
		a.Balance = 0
		if err := txn.Put("accounts", "a1", a); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var a account
	require.NoError(t, s.Get(ctx, "accounts", "a1", &a))
	assert.Equal(t, 100, a.Balance)
}

func TestAtomicReadOfMissingDocGuardsCreation(t *testing.T) {
	s := NewMemoryStore(1)
	ctx := context.Background()

	// A transaction that observed absence must fail if the doc appears
	// before it commits.
	err := s.RunAtomic(ctx, func(ctx context.Context, txn Txn) error {
		var a account
		require.ErrorIs(t, txn.Get(ctx, "accounts", "a1", &a), ErrNotFound)
		require.NoError(t, s.Put(ctx, "accounts", "a1", account{Owner: "sneaky"}))
		return txn.Put("accounts", "a1", account{Owner: "u1"})
	})
	assert.ErrorIs(t, err, ErrConflict)

	var a account
	require.NoError(t, s.Get(ctx, "accounts", "a1", &a))
	assert.Equal(t, "sneaky", a.Owner)
}

func TestAtomicConflictRetries(t *testing.T) {
	s := NewMemoryStore(5)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "accounts", "a1", account{Owner: "u1", Balance: 0}))

	attempts := 0
	err := s.RunAtomic(ctx, func(ctx context.Context, txn Txn) error {
		attempts++
		var a account
		if err := txn.Get(ctx, "accounts", "a1", &a); err != nil {
			return err
		}
		if attempts == 1 {
			// Bump the version behind the transaction's back.
			a.Balance++
			require.NoError(t, s.Put(ctx, "accounts", "a1", a))
		}
		a.Balance += 10
		return txn.Put("accounts", "a1", a)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	var a account
	require.NoError(t, s.Get(ctx, "accounts", "a1", &a))
	assert.Equal(t, 11, a.Balance)
}

func TestAtomicRetriesExhausted(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "accounts", "a1", account{Balance: 0}))

	attempts := 0
	err := s.RunAtomic(ctx, func(ctx context.Context, txn Txn) error {
		attempts++
		var a account
		if err := txn.Get(ctx, "accounts", "a1", &a); err != nil {
			return err
		}
		// Always invalidate the read before committing.
		a.Balance++
		require.NoError(t, s.Put(ctx, "accounts", "a1", a))
		return txn.Put("accounts", "a1", a)
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, attempts)
}

func TestConcurrentIncrementsAllLand(t *testing.T) {
	s := NewMemoryStore(50)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "accounts", "a1", account{Balance: 0}))

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunAtomic(ctx, func(ctx context.Context, txn Txn) error {
				var a account
				if err := txn.Get(ctx, "accounts", "a1", &a); err != nil {
					return err
				}
				a.Balance++
				return txn.Put("accounts", "a1", a)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var a account
	require.NoError(t, s.Get(ctx, "accounts", "a1", &a))
	assert.Equal(t, workers, a.Balance)
}

func TestQueryFiltersAndOrders(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "accounts", "a1", account{Owner: "u1", Status: "Pending"}))
	require.NoError(t, s.Put(ctx, "accounts", "a2", account{Owner: "u1", Status: "Completed"}))
	require.NoError(t, s.Put(ctx, "accounts", "a3", account{Owner: "u2", Status: "Pending"}))

	docs, err := s.Query(ctx, "accounts", Query{Eq: map[string]string{"uid": "u1"}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = s.Query(ctx, "accounts", Query{Eq: map[string]string{"uid": "u1", "status": "Pending"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a1", docs[0].Key)

	docs, err = s.Query(ctx, "accounts", Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	count, err := s.Count(ctx, "accounts", Query{Eq: map[string]string{"status": "Pending"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPutBumpsVersion(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "accounts", "a1", account{Balance: 1}))
	require.NoError(t, s.Put(ctx, "accounts", "a1", account{Balance: 2}))

	docs, err := s.Query(ctx, "accounts", Query{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(2), docs[0].Version)
}
