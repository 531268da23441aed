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

package nexus

import (
	"embed"
	"time"

	"github.com/nexusbank/nexus/cache"
	"github.com/nexusbank/nexus/config"
	"github.com/nexusbank/nexus/internal/apierror"
	"github.com/nexusbank/nexus/store"
)

// Collection names in the document store.
const (
	CollectionUsers         = "users"
	CollectionBalances      = "balances"
	CollectionTransactions  = "transactions"
	CollectionKYC           = "kyc"
	CollectionLoans         = "loanRequests"
	CollectionNotifications = "notifications"
	CollectionRates         = "rates"
)

//go:embed sql/*.sql
var SQLFiles embed.FS

// Caller is the verified identity attached to a request by the auth
// middleware. Operations check the claim they need before opening an atomic
// transaction.
type Caller struct {
	UID   string
	Admin bool
}

func (c Caller) requireUser() error {
	if c.UID == "" {
		return apierror.NewAPIError(apierror.ErrUnauthorized, "Missing caller identity", nil)
	}
	return nil
}

func (c Caller) requireAdmin() error {
	if c.UID == "" {
		return apierror.NewAPIError(apierror.ErrUnauthorized, "Missing caller identity", nil)
	}
	if !c.Admin {
		return apierror.NewAPIError(apierror.ErrForbidden, "Admin access required", nil)
	}
	return nil
}

// Nexus is the service layer. All balance mutations go through the store's
// atomic transactions; the clock is injected so review and creation stamps
// are deterministic in tests.
type Nexus struct {
	store store.Store
	cache cache.Cache
	queue *Queue
	clock func() time.Time
}

// NewNexus initializes the service with the provided document store. Redis
// backed pieces (cache, notification queue) are only wired when a redis DSN
// is configured; without one the service degrades to direct store access.
func NewNexus(db store.Store) (*Nexus, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	n := &Nexus{store: db, clock: time.Now}
	if configuration.Redis.Dns != "" {
		newCache, err := cache.NewCache()
		if err != nil {
			return nil, err
		}
		n.cache = newCache
		n.queue = NewQueue(configuration)
	}
	return n, nil
}

// WithClock replaces the time source. Test hook.
func (n *Nexus) WithClock(clock func() time.Time) *Nexus {
	n.clock = clock
	return n
}

// Store exposes the underlying document store.
func (n *Nexus) Store() store.Store {
	return n.store
}
