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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexusbank/nexus/internal/apierror"
	"github.com/nexusbank/nexus/model"
	"github.com/nexusbank/nexus/store"
)

// loadPendingTransaction loads a pending transaction of the expected type
// inside an atomic transaction. Shared by the four deposit/withdrawal
// settlement paths.
func (n *Nexus) loadPendingTransaction(ctx context.Context, txn store.Txn, id, expectedType string) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := txn.Get(ctx, CollectionTransactions, id, &transaction); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Transaction not found", err)
		}
		return nil, err
	}
	if transaction.Type != expectedType {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			fmt.Sprintf("Transaction is not a %s", expectedType), nil)
	}
	if !transaction.IsPending() {
		return nil, apierror.NewAPIError(apierror.ErrAlreadyProcessed, "Already processed",
			fmt.Errorf("transaction %s has status %s", id, transaction.Status))
	}
	return &transaction, nil
}

func (n *Nexus) reviewStamp(reviewer, reason string) model.Review {
	return model.Review{
		ReviewedBy: reviewer,
		ReviewedAt: n.clock(),
		Reason:     reason,
	}
}

// ApproveDeposit credits the deposit amount to the owner's available balance
// and completes the transaction, atomically. Deposits never pass through
// pending: the funds are not custodied until this approval.
func (n *Nexus) ApproveDeposit(ctx context.Context, caller Caller, transactionID string) error {
	ctx, span := tracer.Start(ctx, "Approve Deposit")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return err
	}

	var owner string
	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		transaction, err := n.loadPendingTransaction(ctx, txn, transactionID, model.TypeDeposit)
		if err != nil {
			return err
		}
		owner = transaction.UID

		key := balanceKey(transaction.UID, transaction.Currency)
		var balance model.Balance
		if err := txn.Get(ctx, CollectionBalances, key, &balance); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			// First deposit in a currency the user was not registered with.
			balance = *model.NewBalance(transaction.UID, transaction.Currency, n.clock())
		}
		balance.Credit(transaction.Amount)

		transaction.Status = model.StatusCompleted
		transaction.Review = n.reviewStamp(caller.UID, "")

		if err := txn.Put(CollectionBalances, key, &balance); err != nil {
			return err
		}
		return txn.Put(CollectionTransactions, transaction.TransactionID, transaction)
	})
	if err != nil {
		return logAndRecordError(span, "deposit approval failed: ", mapLedgerError(err, "Transaction not found"))
	}

	n.notify(ctx, owner, "Deposit approved", "Your deposit has been credited to your balance.")
	return nil
}

// RejectDeposit marks a pending deposit rejected with a reason. No balance
// effect: the funds were never credited.
func (n *Nexus) RejectDeposit(ctx context.Context, caller Caller, transactionID, reason string) error {
	ctx, span := tracer.Start(ctx, "Reject Deposit")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return err
	}

	var owner string
	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		transaction, err := n.loadPendingTransaction(ctx, txn, transactionID, model.TypeDeposit)
		if err != nil {
			return err
		}
		owner = transaction.UID

		transaction.Status = model.StatusRejected
		transaction.Review = n.reviewStamp(caller.UID, reason)
		return txn.Put(CollectionTransactions, transaction.TransactionID, transaction)
	})
	if err != nil {
		return logAndRecordError(span, "deposit rejection failed: ", mapLedgerError(err, "Transaction not found"))
	}

	n.notify(ctx, owner, "Deposit rejected", reason)
	return nil
}

// ApproveWithdrawal settles a reserved withdrawal: pending decreases by the
// transaction amount, available is unchanged (the funds left it at request
// time).
func (n *Nexus) ApproveWithdrawal(ctx context.Context, caller Caller, transactionID string) error {
	ctx, span := tracer.Start(ctx, "Approve Withdrawal")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return err
	}

	var owner string
	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		transaction, err := n.loadPendingTransaction(ctx, txn, transactionID, model.TypeWithdrawal)
		if err != nil {
			return err
		}
		owner = transaction.UID

		key := balanceKey(transaction.UID, transaction.Currency)
		var balance model.Balance
		if err := txn.Get(ctx, CollectionBalances, key, &balance); err != nil {
			return err
		}
		if err := balance.SettleReservation(transaction.Amount); err != nil {
			return err
		}

		transaction.Status = model.StatusCompleted
		transaction.Review = n.reviewStamp(caller.UID, "")

		if err := txn.Put(CollectionBalances, key, &balance); err != nil {
			return err
		}
		return txn.Put(CollectionTransactions, transaction.TransactionID, transaction)
	})
	if err != nil {
		return logAndRecordError(span, "withdrawal approval failed: ", mapLedgerError(err, "Balance not found"))
	}

	n.notify(ctx, owner, "Withdrawal approved", "Your withdrawal has been completed.")
	return nil
}

// RejectWithdrawal reverses the reservation: the amount moves from pending
// back to available, restoring the pre-request total.
func (n *Nexus) RejectWithdrawal(ctx context.Context, caller Caller, transactionID, reason string) error {
	ctx, span := tracer.Start(ctx, "Reject Withdrawal")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return err
	}

	var owner string
	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		transaction, err := n.loadPendingTransaction(ctx, txn, transactionID, model.TypeWithdrawal)
		if err != nil {
			return err
		}
		owner = transaction.UID

		key := balanceKey(transaction.UID, transaction.Currency)
		var balance model.Balance
		if err := txn.Get(ctx, CollectionBalances, key, &balance); err != nil {
			return err
		}
		if err := balance.ReleaseReservation(transaction.Amount); err != nil {
			return err
		}

		transaction.Status = model.StatusRejected
		transaction.Review = n.reviewStamp(caller.UID, reason)

		if err := txn.Put(CollectionBalances, key, &balance); err != nil {
			return err
		}
		return txn.Put(CollectionTransactions, transaction.TransactionID, transaction)
	})
	if err != nil {
		return logAndRecordError(span, "withdrawal rejection failed: ", mapLedgerError(err, "Balance not found"))
	}

	n.notify(ctx, owner, "Withdrawal rejected", reason)
	return nil
}

// AdminDashboard is the pending-items summary for the approval console.
type AdminDashboard struct {
	PendingDeposits    int64 `json:"pendingDeposits"`
	PendingWithdrawals int64 `json:"pendingWithdrawals"`
	PendingKYC         int64 `json:"pendingKYC"`
	PendingLoans       int64 `json:"pendingLoans"`
}

const adminDashboardCacheKey = "admin:dashboard"

// GetAdminDashboard returns pending counts for deposits, withdrawals, KYC
// submissions and loans. Counts are cached briefly; the console polls.
func (n *Nexus) GetAdminDashboard(ctx context.Context, caller Caller) (*AdminDashboard, error) {
	ctx, span := tracer.Start(ctx, "Admin Dashboard")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	if n.cache != nil {
		var cached *AdminDashboard
		if err := n.cache.Get(ctx, adminDashboardCacheKey, &cached); err == nil && cached != nil {
			return cached, nil
		}
	}

	dashboard := &AdminDashboard{}
	counts := []struct {
		collection string
		eq         map[string]string
		target     *int64
	}{
		{CollectionTransactions, map[string]string{"type": model.TypeDeposit, "status": model.StatusPending}, &dashboard.PendingDeposits},
		{CollectionTransactions, map[string]string{"type": model.TypeWithdrawal, "status": model.StatusPending}, &dashboard.PendingWithdrawals},
		{CollectionKYC, map[string]string{"status": string(model.KYCStatusPending)}, &dashboard.PendingKYC},
		{CollectionLoans, map[string]string{"status": model.LoanStatusPending}, &dashboard.PendingLoans},
	}
	for _, c := range counts {
		count, err := n.store.Count(ctx, c.collection, store.Query{Eq: c.eq})
		if err != nil {
			return nil, logAndRecordError(span, "dashboard count failed: ", mapLedgerError(err, ""))
		}
		*c.target = count
	}

	if n.cache != nil {
		if err := n.cache.Set(ctx, adminDashboardCacheKey, dashboard, 10*time.Second); err != nil {
			logrus.Error(err)
		}
	}
	return dashboard, nil
}

// PendingTransactions lists pending transactions of one type for review,
// newest first.
func (n *Nexus) PendingTransactions(ctx context.Context, caller Caller, transactionType string) ([]model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Pending Transactions")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	docs, err := n.store.Query(ctx, CollectionTransactions, store.Query{
		Eq:         map[string]string{"type": transactionType, "status": model.StatusPending},
		Descending: true,
	})
	if err != nil {
		return nil, logAndRecordError(span, "pending list failed: ", mapLedgerError(err, ""))
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
