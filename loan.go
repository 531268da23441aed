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

	"github.com/nexusbank/nexus/internal/apierror"
	"github.com/nexusbank/nexus/model"
	"github.com/nexusbank/nexus/store"
)

// Loans are always denominated in USD; approval credits the USD balance.
const loanCurrency = "USD"

// LoanParams are the user inputs for a loan application.
type LoanParams struct {
	LoanType      string
	Amount        decimal.Decimal
	MonthlyIncome decimal.Decimal
}

// RequestLoan records a pending loan application and returns its reference
// code for tracking.
func (n *Nexus) RequestLoan(ctx context.Context, caller Caller, params LoanParams) (*model.LoanRequest, error) {
	ctx, span := tracer.Start(ctx, "Request Loan")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	loan := &model.LoanRequest{
		LoanID:        model.GenerateUUIDWithSuffix("loan"),
		UID:           caller.UID,
		LoanType:      params.LoanType,
		Amount:        params.Amount,
		MonthlyIncome: params.MonthlyIncome,
		Status:        model.LoanStatusPending,
		RefCode:       model.GenerateLoanRefCode(),
		CreatedAt:     n.clock(),
	}

	if err := n.store.Put(ctx, CollectionLoans, loan.LoanID, loan); err != nil {
		return nil, logAndRecordError(span, "loan request failed: ", mapLedgerError(err, ""))
	}
	return loan, nil
}

func (n *Nexus) loadPendingLoan(ctx context.Context, txn store.Txn, loanID string) (*model.LoanRequest, error) {
	var loan model.LoanRequest
	if err := txn.Get(ctx, CollectionLoans, loanID, &loan); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Loan request not found", err)
		}
		return nil, err
	}
	if loan.Status != model.LoanStatusPending {
		return nil, apierror.NewAPIError(apierror.ErrAlreadyProcessed, "Already processed",
			fmt.Errorf("loan %s has status %s", loanID, loan.Status))
	}
	return &loan, nil
}

// ApproveLoan credits the loan amount to the owner's USD available balance
// and approves the request in one atomic transaction.
func (n *Nexus) ApproveLoan(ctx context.Context, caller Caller, loanID string) error {
	ctx, span := tracer.Start(ctx, "Approve Loan")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return err
	}

	var owner string
	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		loan, err := n.loadPendingLoan(ctx, txn, loanID)
		if err != nil {
			return err
		}
		owner = loan.UID

		key := balanceKey(loan.UID, loanCurrency)
		var balance model.Balance
		if err := txn.Get(ctx, CollectionBalances, key, &balance); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			balance = *model.NewBalance(loan.UID, loanCurrency, n.clock())
		}
		balance.Credit(loan.Amount)

		loan.Status = model.LoanStatusApproved
		loan.Review = n.reviewStamp(caller.UID, "")

		if err := txn.Put(CollectionBalances, key, &balance); err != nil {
			return err
		}
		return txn.Put(CollectionLoans, loan.LoanID, loan)
	})
	if err != nil {
		return logAndRecordError(span, "loan approval failed: ", mapLedgerError(err, "Loan request not found"))
	}

	n.notify(ctx, owner, "Loan approved", "Your loan has been approved and credited to your USD balance.")
	return nil
}

// RejectLoan marks a pending loan rejected with a reason. No balance effect.
func (n *Nexus) RejectLoan(ctx context.Context, caller Caller, loanID, reason string) error {
	ctx, span := tracer.Start(ctx, "Reject Loan")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return err
	}

	var owner string
	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		loan, err := n.loadPendingLoan(ctx, txn, loanID)
		if err != nil {
			return err
		}
		owner = loan.UID

		loan.Status = model.LoanStatusRejected
		loan.Review = n.reviewStamp(caller.UID, reason)
		return txn.Put(CollectionLoans, loan.LoanID, loan)
	})
	if err != nil {
		return logAndRecordError(span, "loan rejection failed: ", mapLedgerError(err, "Loan request not found"))
	}

	n.notify(ctx, owner, "Loan rejected", reason)
	return nil
}

// PendingLoans lists loan applications awaiting review, newest first.
func (n *Nexus) PendingLoans(ctx context.Context, caller Caller) ([]model.LoanRequest, error) {
	ctx, span := tracer.Start(ctx, "Pending Loans")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	docs, err := n.store.Query(ctx, CollectionLoans, store.Query{
		Eq:         map[string]string{"status": model.LoanStatusPending},
		Descending: true,
	})
	if err != nil {
		return nil, logAndRecordError(span, "pending loans failed: ", mapLedgerError(err, ""))
	}

	loans := make([]model.LoanRequest, 0, len(docs))
	for _, doc := range docs {
		var loan model.LoanRequest
		if err := doc.Decode(&loan); err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}
