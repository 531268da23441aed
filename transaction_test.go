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
	"sync"
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

func newTestNexus(t *testing.T) *Nexus {
	t.Helper()
	config.MockConfig(&config.Configuration{
		Ledger: config.LedgerConfig{
			Currencies: []string{"USD", "BTC"},
			Rates:      map[string]string{"USD": "1", "BTC": "2"},
			PaymentInstructions: map[string]config.PaymentInstruction{
				"fiat": {Method: "Bank transfer", Instructions: "Wire to account 0011223344"},
				"TRC20": {Address: "TTestDepositAddress", Network: "TRC20"},
			},
		},
	})
	n, err := NewNexus(store.NewMemoryStore(10))
	require.NoError(t, err)
	return n
}

// seedBalance writes a balance with the given available amount.
func seedBalance(t *testing.T, n *Nexus, uid, currency string, available int64) {
	t.Helper()
	balance := model.NewBalance(uid, currency, n.clock())
	balance.Credit(decimal.NewFromInt(available))
	require.NoError(t, n.store.Put(context.Background(), CollectionBalances, balanceKey(uid, currency), balance))
}

func getBalance(t *testing.T, n *Nexus, uid, currency string) model.Balance {
	t.Helper()
	var balance model.Balance
	require.NoError(t, n.store.Get(context.Background(), CollectionBalances, balanceKey(uid, currency), &balance))
	return balance
}

func seedRates(t *testing.T, n *Nexus) {
	t.Helper()
	require.NoError(t, n.SeedRates(context.Background()))
}

func userCaller(uid string) Caller  { return Caller{UID: uid} }
func adminCaller(uid string) Caller { return Caller{UID: uid, Admin: true} }

func TestRequestDeposit(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	receipt, err := n.RequestDeposit(ctx, userCaller("u1"), DepositParams{
		Amount:     decimal.NewFromInt(500),
		Currency:   "USD",
		MethodType: "fiat",
	})
	require.NoError(t, err)
	assert.Contains(t, receipt.TransactionID, "txn_")
	assert.Contains(t, receipt.TrackingCode, "DEP-")
	assert.Equal(t, "Bank transfer", receipt.AdminDetails.Method)

	var transaction model.Transaction
	require.NoError(t, n.store.Get(ctx, CollectionTransactions, receipt.TransactionID, &transaction))
	assert.Equal(t, model.StatusPending, transaction.Status)
	assert.Equal(t, model.TypeDeposit, transaction.Type)
	assert.True(t, transaction.Amount.Equal(decimal.NewFromInt(500)))

	// Deposits touch no balance until approval.
	var balance model.Balance
	err = n.store.Get(ctx, CollectionBalances, balanceKey("u1", "USD"), &balance)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRequestDepositCryptoInstructions(t *testing.T) {
	n := newTestNexus(t)

	receipt, err := n.RequestDeposit(context.Background(), userCaller("u1"), DepositParams{
		Amount:     decimal.NewFromFloat(0.5),
		Currency:   "BTC",
		MethodType: "crypto",
		Network:    "TRC20",
	})
	require.NoError(t, err)
	assert.Equal(t, "TTestDepositAddress", receipt.AdminDetails.Address)
}

func TestRequestDepositUnknownNetworkFallsBackToFiat(t *testing.T) {
	n := newTestNexus(t)

	receipt, err := n.RequestDeposit(context.Background(), userCaller("u1"), DepositParams{
		Amount:     decimal.NewFromInt(10),
		Currency:   "BTC",
		MethodType: "crypto",
		Network:    "ERC999",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bank transfer", receipt.AdminDetails.Method)
}

func TestRequestDepositRequiresCaller(t *testing.T) {
	n := newTestNexus(t)
	_, err := n.RequestDeposit(context.Background(), Caller{}, DepositParams{Amount: decimal.NewFromInt(1)})
	assert.Equal(t, 401, apierror.MapErrorToHTTPStatus(err))
}

func TestRequestWithdrawalReservesFunds(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()
	seedBalance(t, n, "u1", "USD", 100)

	transaction, err := n.RequestWithdrawal(ctx, userCaller("u1"), WithdrawalParams{
		Amount:   decimal.NewFromInt(40),
		Currency: "USD",
		Method:   "bank",
		Details:  "IBAN DE00",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, transaction.Status)
	assert.Contains(t, transaction.TrackingCode, "WDR-")

	balance := getBalance(t, n, "u1", "USD")
	assert.Equal(t, "60", balance.Available.String())
	assert.Equal(t, "40", balance.Pending.String())
	assert.Equal(t, "100", balance.Total().String())
}

func TestRequestWithdrawalInsufficientFunds(t *testing.T) {
	n := newTestNexus(t)
	seedBalance(t, n, "u1", "USD", 30)

	_, err := n.RequestWithdrawal(context.Background(), userCaller("u1"), WithdrawalParams{
		Amount:   decimal.NewFromInt(31),
		Currency: "USD",
		Method:   "bank",
		Details:  "x",
	})
	assert.Equal(t, 422, apierror.MapErrorToHTTPStatus(err))

	// Nothing committed.
	balance := getBalance(t, n, "u1", "USD")
	assert.Equal(t, "30", balance.Available.String())
	assert.True(t, balance.Pending.IsZero())
}

func TestRequestWithdrawalNoBalance(t *testing.T) {
	n := newTestNexus(t)

	_, err := n.RequestWithdrawal(context.Background(), userCaller("ghost"), WithdrawalParams{
		Amount:   decimal.NewFromInt(10),
		Currency: "USD",
		Method:   "bank",
		Details:  "x",
	})
	assert.Equal(t, 404, apierror.MapErrorToHTTPStatus(err))
}

func TestConcurrentWithdrawalsCannotOverdraw(t *testing.T) {
	n := newTestNexus(t)
	seedBalance(t, n, "u1", "USD", 100)

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = n.RequestWithdrawal(context.Background(), userCaller("u1"), WithdrawalParams{
				Amount:   decimal.NewFromInt(80),
				Currency: "USD",
				Method:   "bank",
				Details:  "x",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	balance := getBalance(t, n, "u1", "USD")
	assert.Equal(t, "20", balance.Available.String())
	assert.Equal(t, "80", balance.Pending.String())
}

func TestSwapConvertsAtStoredRates(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()
	seedRates(t, n)
	seedBalance(t, n, "u1", "USD", 100)
	seedBalance(t, n, "u1", "BTC", 0)

	transaction, err := n.Swap(ctx, userCaller("u1"), SwapParams{
		FromCurrency: "USD",
		ToCurrency:   "BTC",
		Amount:       decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, transaction.Status)
	// 50 USD at rate 1 into rate 2 yields 25.
	assert.Equal(t, "25", transaction.ReceivedAmount.String())

	usd := getBalance(t, n, "u1", "USD")
	btc := getBalance(t, n, "u1", "BTC")
	assert.Equal(t, "50", usd.Available.String())
	assert.Equal(t, "25", btc.Available.String())
}

func TestSwapUnknownAsset(t *testing.T) {
	n := newTestNexus(t)
	seedRates(t, n)
	seedBalance(t, n, "u1", "USD", 100)

	_, err := n.Swap(context.Background(), userCaller("u1"), SwapParams{
		FromCurrency: "USD",
		ToCurrency:   "DOGE",
		Amount:       decimal.NewFromInt(10),
	})
	var apiErr apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
	assert.Equal(t, "Asset not found", apiErr.Message)
}

func TestSwapSameAssetRejected(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()
	seedRates(t, n)
	seedBalance(t, n, "u1", "USD", 100)

	_, err := n.Swap(ctx, userCaller("u1"), SwapParams{
		FromCurrency: "USD",
		ToCurrency:   "USD",
		Amount:       decimal.NewFromInt(100),
	})
	var apiErr apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)

	// The balance is untouched: nothing was minted or burned.
	usd := getBalance(t, n, "u1", "USD")
	assert.Equal(t, "100", usd.Available.String())
	assert.True(t, usd.Pending.IsZero())
}

func TestSwapZeroRateFails(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()
	seedRates(t, n)
	seedBalance(t, n, "u1", "USD", 100)
	seedBalance(t, n, "u1", "XXX", 0)
	require.NoError(t, n.store.Put(ctx, CollectionRates, "XXX",
		&model.Rate{Currency: "XXX", Rate: decimal.Zero}))

	_, err := n.Swap(ctx, userCaller("u1"), SwapParams{
		FromCurrency: "USD",
		ToCurrency:   "XXX",
		Amount:       decimal.NewFromInt(10),
	})
	require.Error(t, err)
	assert.Equal(t, 500, apierror.MapErrorToHTTPStatus(err))

	usd := getBalance(t, n, "u1", "USD")
	assert.Equal(t, "100", usd.Available.String())
}

func TestSwapInsufficientFunds(t *testing.T) {
	n := newTestNexus(t)
	seedRates(t, n)
	seedBalance(t, n, "u1", "USD", 10)
	seedBalance(t, n, "u1", "BTC", 0)

	_, err := n.Swap(context.Background(), userCaller("u1"), SwapParams{
		FromCurrency: "USD",
		ToCurrency:   "BTC",
		Amount:       decimal.NewFromInt(11),
	})
	assert.Equal(t, 422, apierror.MapErrorToHTTPStatus(err))

	btc := getBalance(t, n, "u1", "BTC")
	assert.True(t, btc.Available.IsZero())
}

func TestSendDebitsImmediately(t *testing.T) {
	n := newTestNexus(t)
	seedBalance(t, n, "u1", "BTC", 5)

	transaction, err := n.Send(context.Background(), userCaller("u1"), SendParams{
		Currency:  "BTC",
		Amount:    decimal.NewFromInt(2),
		Recipient: gofakeit.BitcoinAddress(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, transaction.Status)
	assert.Contains(t, transaction.TrackingCode, "SND-")

	balance := getBalance(t, n, "u1", "BTC")
	assert.Equal(t, "3", balance.Available.String())
	assert.True(t, balance.Pending.IsZero())
}

func TestTransactionHistoryFiltersByStatus(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()
	seedBalance(t, n, "u1", "USD", 1000)

	_, err := n.RequestDeposit(ctx, userCaller("u1"), DepositParams{Amount: decimal.NewFromInt(10), Currency: "USD"})
	require.NoError(t, err)
	_, err = n.RequestWithdrawal(ctx, userCaller("u1"), WithdrawalParams{Amount: decimal.NewFromInt(20), Currency: "USD", Method: "bank", Details: "x"})
	require.NoError(t, err)
	_, err = n.RequestDeposit(ctx, userCaller("u2"), DepositParams{Amount: decimal.NewFromInt(30), Currency: "USD"})
	require.NoError(t, err)

	history, err := n.TransactionHistory(ctx, userCaller("u1"), "")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	history, err = n.TransactionHistory(ctx, userCaller("u1"), "All")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	history, err = n.TransactionHistory(ctx, userCaller("u1"), model.StatusCompleted)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTrackStatusTransaction(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	receipt, err := n.RequestDeposit(ctx, userCaller("u1"), DepositParams{Amount: decimal.NewFromInt(10), Currency: "USD"})
	require.NoError(t, err)

	lookup, err := n.TrackStatus(ctx, receipt.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, model.TypeDeposit, lookup.Type)
	assert.Equal(t, model.StatusPending, lookup.Status)
	assert.Equal(t, receipt.TrackingCode, lookup.TrackingCode)
}

func TestTrackStatusLoan(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	loan, err := n.RequestLoan(ctx, userCaller("u1"), LoanParams{
		LoanType:      "personal",
		Amount:        decimal.NewFromInt(5000),
		MonthlyIncome: decimal.NewFromInt(3000),
	})
	require.NoError(t, err)

	lookup, err := n.TrackStatus(ctx, loan.RefCode)
	require.NoError(t, err)
	assert.Equal(t, "Loan", lookup.Type)
	assert.Equal(t, model.LoanStatusPending, lookup.Status)
}

func TestTrackStatusUnknownCode(t *testing.T) {
	n := newTestNexus(t)

	_, err := n.TrackStatus(context.Background(), "DEP-ZZZZZZ")
	assert.Equal(t, 404, apierror.MapErrorToHTTPStatus(err))

	_, err = n.TrackStatus(context.Background(), "  ")
	assert.Equal(t, 400, apierror.MapErrorToHTTPStatus(err))
}
