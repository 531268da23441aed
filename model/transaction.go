package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusRejected  = "Rejected"

	TypeDeposit    = "Deposit"
	TypeWithdrawal = "Withdrawal"
	TypeSwap       = "Swap"
	TypeSend       = "Send"
)

// Review carries the audit stamp applied when an admin settles a pending item.
type Review struct {
	ReviewedBy string    `json:"reviewed_by,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// Transaction is one ledger event. Amount, type and owner are immutable after
// creation; only Status (and the review stamp) changes, Pending to exactly one
// of Completed or Rejected.
type Transaction struct {
	TransactionID  string          `json:"id"`
	UID            string          `json:"uid"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	Method         string          `json:"method,omitempty"`
	Details        string          `json:"details,omitempty"`
	Recipient      string          `json:"recipient,omitempty"`
	ToCurrency     string          `json:"to_currency,omitempty"`
	ReceivedAmount decimal.Decimal `json:"received_amount,omitempty"`
	TrackingCode   string          `json:"tracking_code"`
	CreatedAt      time.Time       `json:"created_at"`
	Review         Review          `json:"review,omitempty"`
}

// IsPending reports whether the transaction still awaits review.
func (transaction *Transaction) IsPending() bool {
	return transaction.Status == StatusPending
}
