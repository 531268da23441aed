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
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/nexusbank/nexus/config"
	"github.com/nexusbank/nexus/internal/apierror"
	"github.com/nexusbank/nexus/model"
	"github.com/nexusbank/nexus/store"
)

var tracer = otel.Tracer("nexus.ledger")

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// balanceKey builds the document key for a (uid, currency) balance.
func balanceKey(uid, currency string) string {
	return uid + "/" + currency
}

// mapLedgerError translates store and model failures into the API error
// taxonomy. notFoundMsg names the missing entity for the caller.
func mapLedgerError(err error, notFoundMsg string) error {
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apierror.NewAPIError(apierror.ErrNotFound, notFoundMsg, err)
	case errors.Is(err, store.ErrConflict):
		return apierror.NewAPIError(apierror.ErrConflict, "Transaction conflict, please retry", err)
	case errors.Is(err, model.ErrInsufficientFunds):
		return apierror.NewAPIError(apierror.ErrInsufficientFunds, "Insufficient balance", err)
	default:
		return apierror.NewAPIError(apierror.ErrInternalServer, "Ledger operation failed", err)
	}
}

// DepositParams are the user inputs for registering a deposit.
type DepositParams struct {
	Amount     decimal.Decimal
	Currency   string
	MethodType string
	Network    string
}

// DepositReceipt pairs the created transaction with the funding details the
// user must follow to complete the deposit.
type DepositReceipt struct {
	TransactionID string                    `json:"id"`
	TrackingCode  string                    `json:"tracking_code"`
	AdminDetails  config.PaymentInstruction `json:"admin_details"`
}

// RequestDeposit records a pending deposit and returns payment instructions.
// No balance is touched: funds are not custodied until an admin approves.
func (n *Nexus) RequestDeposit(ctx context.Context, caller Caller, params DepositParams) (*DepositReceipt, error) {
	ctx, span := tracer.Start(ctx, "Request Deposit")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	currency := params.Currency
	if currency == "" {
		currency = "USD"
	}
	method := "Fiat"
	if params.MethodType == "crypto" {
		method = params.Network
	}

	transaction := &model.Transaction{
		TransactionID: model.GenerateUUIDWithSuffix("txn"),
		UID:           caller.UID,
		Type:          model.TypeDeposit,
		Amount:        params.Amount,
		Currency:      currency,
		Method:        method,
		Status:        model.StatusPending,
		TrackingCode:  model.GenerateTrackingCode("DEP"),
		CreatedAt:     n.clock(),
	}

	if err := n.store.Put(ctx, CollectionTransactions, transaction.TransactionID, transaction); err != nil {
		return nil, logAndRecordError(span, "failed to record deposit: ", mapLedgerError(err, ""))
	}

	instruction, ok := cfg.Ledger.PaymentInstructions[params.Network]
	if !ok || params.MethodType != "crypto" {
		instruction = cfg.Ledger.PaymentInstructions["fiat"]
	}

	return &DepositReceipt{
		TransactionID: transaction.TransactionID,
		TrackingCode:  transaction.TrackingCode,
		AdminDetails:  instruction,
	}, nil
}

// WithdrawalParams are the user inputs for a withdrawal request.
type WithdrawalParams struct {
	Amount   decimal.Decimal
	Currency string
	Method   string
	Details  string
}

// RequestWithdrawal atomically reserves the amount (available -> pending) and
// creates a pending withdrawal transaction. Available + pending is conserved.
func (n *Nexus) RequestWithdrawal(ctx context.Context, caller Caller, params WithdrawalParams) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Request Withdrawal")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	transaction := &model.Transaction{
		TransactionID: model.GenerateUUIDWithSuffix("txn"),
		UID:           caller.UID,
		Type:          model.TypeWithdrawal,
		Amount:        params.Amount,
		Currency:      params.Currency,
		Method:        params.Method,
		Details:       params.Details,
		Status:        model.StatusPending,
		TrackingCode:  model.GenerateTrackingCode("WDR"),
		CreatedAt:     n.clock(),
	}

	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		var balance model.Balance
		if err := txn.Get(ctx, CollectionBalances, balanceKey(caller.UID, params.Currency), &balance); err != nil {
			return err
		}
		if err := balance.Reserve(params.Amount); err != nil {
			return err
		}
		if err := txn.Put(CollectionBalances, balanceKey(caller.UID, params.Currency), &balance); err != nil {
			return err
		}
		return txn.Put(CollectionTransactions, transaction.TransactionID, transaction)
	})
	if err != nil {
		return nil, logAndRecordError(span, "withdrawal request failed: ", mapLedgerError(err, "Balance not found"))
	}
	return transaction, nil
}

// SwapParams are the user inputs for an asset conversion.
type SwapParams struct {
	FromCurrency string
	ToCurrency   string
	Amount       decimal.Decimal
}

// Swap converts between two of the caller's balances at the configured rates.
// The debit, the credit and the completed transaction record commit together.
// Swaps are not queued for review.
func (n *Nexus) Swap(ctx context.Context, caller Caller, params SwapParams) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Swap Assets")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}
	// A self-swap would stage two writes to the same balance document and
	// lose the debit.
	if params.FromCurrency == params.ToCurrency {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Cannot swap an asset for itself", nil)
	}

	transaction := &model.Transaction{
		TransactionID: model.GenerateUUIDWithSuffix("txn"),
		UID:           caller.UID,
		Type:          model.TypeSwap,
		Amount:        params.Amount,
		Currency:      params.FromCurrency,
		ToCurrency:    params.ToCurrency,
		Status:        model.StatusCompleted,
		TrackingCode:  model.GenerateTrackingCode("SWP"),
		CreatedAt:     n.clock(),
	}

	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		var fromRate, toRate model.Rate
		if err := txn.Get(ctx, CollectionRates, params.FromCurrency, &fromRate); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apierror.NewAPIError(apierror.ErrNotFound, "Asset not found", err)
			}
			return err
		}
		if err := txn.Get(ctx, CollectionRates, params.ToCurrency, &toRate); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apierror.NewAPIError(apierror.ErrNotFound, "Asset not found", err)
			}
			return err
		}
		// A corrupted rate document must fail the swap, not divide by zero.
		if toRate.Rate.Sign() <= 0 {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Asset rate unavailable", nil)
		}

		var from, to model.Balance
		if err := txn.Get(ctx, CollectionBalances, balanceKey(caller.UID, params.FromCurrency), &from); err != nil {
			return err
		}
		if err := txn.Get(ctx, CollectionBalances, balanceKey(caller.UID, params.ToCurrency), &to); err != nil {
			return err
		}

		if err := from.Debit(params.Amount); err != nil {
			return err
		}
		received := fromRate.Convert(params.Amount, &toRate)
		to.Credit(received)
		transaction.ReceivedAmount = received

		if err := txn.Put(CollectionBalances, balanceKey(caller.UID, params.FromCurrency), &from); err != nil {
			return err
		}
		if err := txn.Put(CollectionBalances, balanceKey(caller.UID, params.ToCurrency), &to); err != nil {
			return err
		}
		return txn.Put(CollectionTransactions, transaction.TransactionID, transaction)
	})
	if err != nil {
		return nil, logAndRecordError(span, "swap failed: ", mapLedgerError(err, "Asset balance not found"))
	}
	return transaction, nil
}

// SendParams are the user inputs for an outbound transfer.
type SendParams struct {
	Currency  string
	Amount    decimal.Decimal
	Recipient string
}

// Send debits the caller's available balance and records a pending transfer.
// The recipient is external; settlement happens downstream.
func (n *Nexus) Send(ctx context.Context, caller Caller, params SendParams) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Send Asset")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	transaction := &model.Transaction{
		TransactionID: model.GenerateUUIDWithSuffix("txn"),
		UID:           caller.UID,
		Type:          model.TypeSend,
		Amount:        params.Amount,
		Currency:      params.Currency,
		Recipient:     params.Recipient,
		Status:        model.StatusPending,
		TrackingCode:  model.GenerateTrackingCode("SND"),
		CreatedAt:     n.clock(),
	}

	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		var balance model.Balance
		if err := txn.Get(ctx, CollectionBalances, balanceKey(caller.UID, params.Currency), &balance); err != nil {
			return err
		}
		if err := balance.Debit(params.Amount); err != nil {
			return err
		}
		if err := txn.Put(CollectionBalances, balanceKey(caller.UID, params.Currency), &balance); err != nil {
			return err
		}
		return txn.Put(CollectionTransactions, transaction.TransactionID, transaction)
	})
	if err != nil {
		return nil, logAndRecordError(span, "send failed: ", mapLedgerError(err, "Asset not found"))
	}
	return transaction, nil
}

const historyLimit = 50

// TransactionHistory returns the caller's most recent transactions, newest
// first, optionally filtered by status.
func (n *Nexus) TransactionHistory(ctx context.Context, caller Caller, status string) ([]model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Transaction History")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	q := store.Query{
		Eq:         map[string]string{"uid": caller.UID},
		Descending: true,
		Limit:      historyLimit,
	}
	if status != "" && status != "All" {
		q.Eq["status"] = status
	}

	docs, err := n.store.Query(ctx, CollectionTransactions, q)
	if err != nil {
		return nil, logAndRecordError(span, "history query failed: ", mapLedgerError(err, ""))
	}

	transactions := make([]model.Transaction, 0, len(docs))
	for _, doc := range docs {
		var transaction model.Transaction
		if err := doc.Decode(&transaction); err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, nil
}

// StatusLookup is the public view of a tracked item.
type StatusLookup struct {
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	TrackingCode string          `json:"tracking_code"`
}

// TrackStatus resolves a tracking code without authentication. Loan codes
// (LN-) resolve against loan requests, everything else against transactions.
func (n *Nexus) TrackStatus(ctx context.Context, code string) (*StatusLookup, error) {
	ctx, span := tracer.Start(ctx, "Track Status")
	defer span.End()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Reference code required", nil)
	}

	if strings.HasPrefix(code, "LN-") {
		docs, err := n.store.Query(ctx, CollectionLoans, store.Query{Eq: map[string]string{"ref_code": code}, Limit: 1})
		if err != nil {
			return nil, mapLedgerError(err, "")
		}
		if len(docs) == 0 {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Record not found", fmt.Errorf("no loan for code %s", code))
		}
		var loan model.LoanRequest
		if err := docs[0].Decode(&loan); err != nil {
			return nil, err
		}
		return &StatusLookup{Type: "Loan", Status: loan.Status, Amount: loan.Amount, Currency: "USD", TrackingCode: loan.RefCode}, nil
	}

	docs, err := n.store.Query(ctx, CollectionTransactions, store.Query{Eq: map[string]string{"tracking_code": code}, Limit: 1})
	if err != nil {
		return nil, mapLedgerError(err, "")
	}
	if len(docs) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "Record not found", fmt.Errorf("no transaction for code %s", code))
	}
	var transaction model.Transaction
	if err := docs[0].Decode(&transaction); err != nil {
		return nil, err
	}
	return &StatusLookup{
		Type:         transaction.Type,
		Status:       transaction.Status,
		Amount:       transaction.Amount,
		Currency:     transaction.Currency,
		TrackingCode: transaction.TrackingCode,
	}, nil
}
