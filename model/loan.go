package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusRejected = "rejected"
)

// LoanRequest is a user's application for credit. Approval credits the
// owner's USD available balance in the same atomic transaction that flips
// the status.
type LoanRequest struct {
	LoanID        string          `json:"id"`
	UID           string          `json:"uid"`
	LoanType      string          `json:"loan_type"`
	Amount        decimal.Decimal `json:"amount"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	Status        string          `json:"status"`
	RefCode       string          `json:"ref_code"`
	CreatedAt     time.Time       `json:"created_at"`
	Review        Review          `json:"review,omitempty"`
}
