package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a debit or reservation would take the
// available balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds in available balance")

// Balance is the per (uid, currency) ledger document. Available is the
// spendable amount; Pending holds funds reserved for in-flight withdrawals.
// Both are always >= 0.
type Balance struct {
	UID       string          `json:"uid"`
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewBalance returns a zeroed balance document for the given owner and currency.
func NewBalance(uid, currency string, now time.Time) *Balance {
	return &Balance{
		UID:       uid,
		Currency:  currency,
		Available: decimal.Zero,
		Pending:   decimal.Zero,
		CreatedAt: now,
	}
}

// Reserve moves amount from available to pending, locking it for a
// withdrawal awaiting review.
func (balance *Balance) Reserve(amount decimal.Decimal) error {
	if balance.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	balance.Available = balance.Available.Sub(amount)
	balance.Pending = balance.Pending.Add(amount)
	return nil
}

// ReleaseReservation returns a previously reserved amount to available.
// Used when a withdrawal is rejected.
func (balance *Balance) ReleaseReservation(amount decimal.Decimal) error {
	if balance.Pending.LessThan(amount) {
		return errors.New("pending balance below reserved amount")
	}
	balance.Pending = balance.Pending.Sub(amount)
	balance.Available = balance.Available.Add(amount)
	return nil
}

// SettleReservation removes a reserved amount from pending once the
// withdrawal completes. Available is untouched, the funds already left it at
// reservation time.
func (balance *Balance) SettleReservation(amount decimal.Decimal) error {
	if balance.Pending.LessThan(amount) {
		return errors.New("pending balance below reserved amount")
	}
	balance.Pending = balance.Pending.Sub(amount)
	return nil
}

// Credit adds amount to available.
func (balance *Balance) Credit(amount decimal.Decimal) {
	balance.Available = balance.Available.Add(amount)
}

// Debit removes amount from available.
func (balance *Balance) Debit(amount decimal.Decimal) error {
	if balance.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	balance.Available = balance.Available.Sub(amount)
	return nil
}

// Total returns available + pending. Reservation and release conserve this sum.
func (balance *Balance) Total() decimal.Decimal {
	return balance.Available.Add(balance.Pending)
}

// Rate is the per-currency conversion rate document used by swaps. Rates are
// expressed against a common base, so converting A to B multiplies by
// rate(A)/rate(B).
type Rate struct {
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// Convert returns the amount received in the target currency.
func (r *Rate) Convert(amount decimal.Decimal, to *Rate) decimal.Decimal {
	return amount.Mul(r.Rate).Div(to.Rate)
}
