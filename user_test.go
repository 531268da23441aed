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
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusbank/nexus/config"
	"github.com/nexusbank/nexus/internal/apierror"
	"github.com/nexusbank/nexus/model"
	"github.com/nexusbank/nexus/store"
)

func TestRegisterUserCreatesProfileAndBalances(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	user, err := n.RegisterUser(ctx, userCaller("u1"), RegisterParams{
		FullName: gofakeit.Name(),
		Email:    gofakeit.Email(),
		Phone:    gofakeit.Phone(),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UID)
	assert.Equal(t, model.KYCStatusUnverified, user.KYCStatus)

	// One zero balance per configured currency.
	for _, currency := range []string{"USD", "BTC"} {
		balance := getBalance(t, n, "u1", currency)
		assert.True(t, balance.Available.IsZero())
		assert.True(t, balance.Pending.IsZero())
	}
}

func TestRegisterUserTwice(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.RegisterUser(ctx, userCaller("u1"), RegisterParams{FullName: "Ada Kane", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = n.RegisterUser(ctx, userCaller("u1"), RegisterParams{FullName: "Ada Kane", Email: "ada@example.com"})
	var apiErr apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestGetUserProfileNotFound(t *testing.T) {
	n := newTestNexus(t)
	_, err := n.GetUserProfile(context.Background(), userCaller("ghost"))
	assert.Equal(t, 404, apierror.MapErrorToHTTPStatus(err))
}

func TestUserDashboard(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.RegisterUser(ctx, userCaller("u1"), RegisterParams{FullName: "Ada Kane", Email: "ada@example.com"})
	require.NoError(t, err)

	id := pendingDeposit(t, n, "u1", 300, "USD")
	require.NoError(t, n.ApproveDeposit(ctx, adminCaller("admin_1"), id))

	dashboard, err := n.GetUserDashboard(ctx, userCaller("u1"))
	require.NoError(t, err)
	assert.Equal(t, "Ada Kane", dashboard.FullName)
	assert.Equal(t, "300", dashboard.Balances["USD"].Available.String())
	assert.True(t, dashboard.Balances["BTC"].Available.IsZero())
	require.NotEmpty(t, dashboard.RecentActivity)
	assert.Equal(t, model.TypeDeposit, dashboard.RecentActivity[0].Type)
}

func TestUserDashboardUnregisteredDefaults(t *testing.T) {
	n := newTestNexus(t)

	dashboard, err := n.GetUserDashboard(context.Background(), userCaller("ghost"))
	require.NoError(t, err)
	assert.Equal(t, "User", dashboard.FullName)
	assert.Len(t, dashboard.Balances, 2)
	assert.Empty(t, dashboard.RecentActivity)
}

func TestHeaderData(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.RegisterUser(ctx, userCaller("u1"), RegisterParams{FullName: "Ada Kane", Email: "ada@example.com"})
	require.NoError(t, err)

	header, err := n.GetHeaderData(ctx, userCaller("u1"))
	require.NoError(t, err)
	assert.Equal(t, "Ada Kane", header.FullName)
	assert.False(t, header.HasUnread)

	id := pendingDeposit(t, n, "u1", 10, "USD")
	require.NoError(t, n.ApproveDeposit(ctx, adminCaller("admin_1"), id))

	header, err = n.GetHeaderData(ctx, userCaller("u1"))
	require.NoError(t, err)
	assert.True(t, header.HasUnread)
}

func TestUserStats(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()
	seedBalance(t, n, "u1", "USD", 1000)

	deposit := pendingDeposit(t, n, "u1", 500, "USD")
	require.NoError(t, n.ApproveDeposit(ctx, adminCaller("admin_1"), deposit))

	withdrawal := pendingWithdrawal(t, n, "u1", 200, "USD")
	require.NoError(t, n.ApproveWithdrawal(ctx, adminCaller("admin_1"), withdrawal))

	pendingDeposit(t, n, "u1", 50, "USD")

	stats, err := n.GetUserStats(ctx, userCaller("u1"), "30d")
	require.NoError(t, err)
	assert.Equal(t, "500", stats.Deposits.String())
	assert.Equal(t, "200", stats.Withdrawals.String())
	assert.Equal(t, "50", stats.Pending.String())
	assert.Equal(t, "300", stats.Available.String())
	// 500 + 50 deposits minus 200 withdrawal in USD.
	assert.Equal(t, "350", stats.Allocation["USD"].String())
}

func TestSeedRates(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	require.NoError(t, n.SeedRates(ctx))

	var rate model.Rate
	require.NoError(t, n.store.Get(ctx, CollectionRates, "BTC", &rate))
	assert.True(t, rate.Rate.Equal(decimal.NewFromInt(2)))
}

func TestSeedRatesRejectsNonPositiveRate(t *testing.T) {
	config.MockConfig(&config.Configuration{
		Ledger: config.LedgerConfig{
			Currencies: []string{"USD", "XXX"},
			Rates:      map[string]string{"USD": "1", "XXX": "0"},
		},
	})
	n, err := NewNexus(store.NewMemoryStore(10))
	require.NoError(t, err)

	err = n.SeedRates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	// Nothing seeded for the bad currency.
	var rate model.Rate
	getErr := n.store.Get(context.Background(), CollectionRates, "XXX", &rate)
	assert.ErrorIs(t, getErr, store.ErrNotFound)
}
