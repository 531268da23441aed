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
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/nexus/config"
	"github.com/nexusbank/nexus/internal/apierror"
	"github.com/nexusbank/nexus/model"
	"github.com/nexusbank/nexus/store"
)

// RegisterParams are the profile fields captured at registration.
type RegisterParams struct {
	FullName string
	Email    string
	Phone    string
}

// RegisterUser creates the profile document and a zero balance for every
// configured currency in one atomic commit. Registering twice fails.
func (n *Nexus) RegisterUser(ctx context.Context, caller Caller, params RegisterParams) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "Register User")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UID:       caller.UID,
		FullName:  params.FullName,
		Email:     params.Email,
		Phone:     params.Phone,
		KYCStatus: model.KYCStatusUnverified,
		CreatedAt: n.clock(),
	}

	err = n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		err := txn.Get(ctx, CollectionUsers, caller.UID, nil)
		if err == nil {
			return apierror.NewAPIError(apierror.ErrConflict, "User already registered",
				fmt.Errorf("profile exists for %s", caller.UID))
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := txn.Put(CollectionUsers, caller.UID, user); err != nil {
			return err
		}
		for _, currency := range cfg.Ledger.Currencies {
			balance := model.NewBalance(caller.UID, currency, n.clock())
			if err := txn.Put(CollectionBalances, balanceKey(caller.UID, currency), balance); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, logAndRecordError(span, "registration failed: ", mapLedgerError(err, ""))
	}
	return user, nil
}

// GetUserProfile returns the caller's profile document.
func (n *Nexus) GetUserProfile(ctx context.Context, caller Caller) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "Get User Profile")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	var user model.User
	if err := n.store.Get(ctx, CollectionUsers, caller.UID, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "User profile not found", err)
		}
		return nil, logAndRecordError(span, "profile fetch failed: ", mapLedgerError(err, ""))
	}
	return &user, nil
}

// BalanceView is the dashboard shape of one currency balance.
type BalanceView struct {
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
}

// Dashboard is the user landing payload: profile name, balances for every
// configured currency (zeroed when the document is missing) and the five
// most recent transactions.
type Dashboard struct {
	FullName       string                 `json:"fullName"`
	Balances       map[string]BalanceView `json:"balances"`
	RecentActivity []model.Transaction    `json:"recentActivity"`
}

const recentActivityLimit = 5

// GetUserDashboard assembles the dashboard. Balance and activity reads are
// non-critical: a failed secondary read degrades to zero values rather than
// failing the whole page.
func (n *Nexus) GetUserDashboard(ctx context.Context, caller Caller) (*Dashboard, error) {
	ctx, span := tracer.Start(ctx, "User Dashboard")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		FullName:       "User",
		Balances:       make(map[string]BalanceView, len(cfg.Ledger.Currencies)),
		RecentActivity: []model.Transaction{},
	}
	for _, currency := range cfg.Ledger.Currencies {
		dashboard.Balances[currency] = BalanceView{Available: decimal.Zero, Pending: decimal.Zero}
	}

	var user model.User
	if err := n.store.Get(ctx, CollectionUsers, caller.UID, &user); err == nil {
		dashboard.FullName = user.FullName
	}

	docs, err := n.store.Query(ctx, CollectionBalances, store.Query{Eq: map[string]string{"uid": caller.UID}})
	if err != nil {
		_ = logAndRecordError(span, "dashboard balances failed: ", err)
	}
	for _, doc := range docs {
		var balance model.Balance
		if err := doc.Decode(&balance); err != nil {
			continue
		}
		if _, ok := dashboard.Balances[balance.Currency]; ok {
			dashboard.Balances[balance.Currency] = BalanceView{Available: balance.Available, Pending: balance.Pending}
		}
	}

	activity, err := n.store.Query(ctx, CollectionTransactions, store.Query{
		Eq:         map[string]string{"uid": caller.UID},
		Descending: true,
		Limit:      recentActivityLimit,
	})
	if err != nil {
		_ = logAndRecordError(span, "dashboard activity failed: ", err)
	}
	for _, doc := range activity {
		var transaction model.Transaction
		if err := doc.Decode(&transaction); err != nil {
			continue
		}
		dashboard.RecentActivity = append(dashboard.RecentActivity, transaction)
	}

	return dashboard, nil
}

// HeaderData feeds the page header: display name plus the unread badge.
type HeaderData struct {
	FullName  string `json:"fullName"`
	HasUnread bool   `json:"hasUnread"`
}

func (n *Nexus) GetHeaderData(ctx context.Context, caller Caller) (*HeaderData, error) {
	ctx, span := tracer.Start(ctx, "Header Data")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	header := &HeaderData{FullName: "User Account"}
	var user model.User
	if err := n.store.Get(ctx, CollectionUsers, caller.UID, &user); err == nil {
		header.FullName = user.FullName
	}

	hasUnread, err := n.UnreadNotifications(ctx, caller.UID)
	if err != nil {
		return nil, logAndRecordError(span, "header fetch failed: ", mapLedgerError(err, ""))
	}
	header.HasUnread = hasUnread
	return header, nil
}

// UserStats aggregates the caller's flows over a window.
type UserStats struct {
	Deposits    decimal.Decimal            `json:"deposits"`
	Withdrawals decimal.Decimal            `json:"withdrawals"`
	Pending     decimal.Decimal            `json:"pending"`
	Available   decimal.Decimal            `json:"available"`
	Allocation  map[string]decimal.Decimal `json:"allocation"`
}

// GetUserStats sums completed deposits and withdrawals, outstanding pending
// amounts and per-currency allocation over the requested window ("30d" or
// the default "90d").
func (n *Nexus) GetUserStats(ctx context.Context, caller Caller, window string) (*UserStats, error) {
	ctx, span := tracer.Start(ctx, "User Stats")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	days := 90
	if window == "30d" {
		days = 30
	}
	since := n.clock().AddDate(0, 0, -days)

	docs, err := n.store.Query(ctx, CollectionTransactions, store.Query{
		Eq:    map[string]string{"uid": caller.UID},
		Since: since,
	})
	if err != nil {
		return nil, logAndRecordError(span, "stats query failed: ", mapLedgerError(err, ""))
	}

	stats := &UserStats{
		Deposits:    decimal.Zero,
		Withdrawals: decimal.Zero,
		Pending:     decimal.Zero,
		Allocation:  make(map[string]decimal.Decimal),
	}

	for _, doc := range docs {
		var transaction model.Transaction
		if err := doc.Decode(&transaction); err != nil {
			continue
		}

		if transaction.Status == model.StatusCompleted {
			switch transaction.Type {
			case model.TypeDeposit:
				stats.Deposits = stats.Deposits.Add(transaction.Amount)
			case model.TypeWithdrawal:
				stats.Withdrawals = stats.Withdrawals.Add(transaction.Amount)
			}
		}
		if transaction.Status == model.StatusPending {
			stats.Pending = stats.Pending.Add(transaction.Amount)
		}

		allocation := stats.Allocation[transaction.Currency]
		if transaction.Type == model.TypeWithdrawal {
			stats.Allocation[transaction.Currency] = allocation.Sub(transaction.Amount)
		} else {
			stats.Allocation[transaction.Currency] = allocation.Add(transaction.Amount)
		}
	}

	stats.Available = stats.Deposits.Sub(stats.Withdrawals)
	return stats, nil
}

// SeedRates writes the configured conversion rates into the rates
// collection. Run at migration time; swaps read rates transactionally.
func (n *Nexus) SeedRates(ctx context.Context) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	for currency, value := range cfg.Ledger.Rates {
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("invalid rate for %s: %w", currency, err)
		}
		if rate.Sign() <= 0 {
			return fmt.Errorf("invalid rate for %s: must be positive, got %s", currency, value)
		}
		if err := n.store.Put(ctx, CollectionRates, currency, &model.Rate{Currency: currency, Rate: rate}); err != nil {
			return err
		}
	}
	return nil
}
