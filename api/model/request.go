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

// Package model holds the HTTP request shapes and their validation rules.
// Validation rejects malformed requests before they reach the ledger; a
// violation never writes state.
package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Phone, validation.Length(0, 32)),
	)
}

type DepositRequest struct {
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	MethodType string  `json:"methodType"`
	Network    string  `json:"network"`
}

func (r *DepositRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Currency, validation.Length(2, 5)),
		validation.Field(&r.MethodType, validation.In("crypto", "fiat")),
	)
}

type WithdrawRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Method   string  `json:"method"`
	Details  string  `json:"details"`
}

func (r *WithdrawRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Currency, validation.Required, validation.Length(2, 5)),
		validation.Field(&r.Method, validation.Required),
		validation.Field(&r.Details, validation.Required),
	)
}

type SwapRequest struct {
	FromCurrency string  `json:"fromCurrency"`
	ToCurrency   string  `json:"toCurrency"`
	Amount       float64 `json:"amount"`
}

func (r *SwapRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.FromCurrency, validation.Required, validation.Length(2, 5)),
		validation.Field(&r.ToCurrency, validation.Required, validation.Length(2, 5),
			validation.NotIn(r.FromCurrency).Error("must differ from fromCurrency")),
	)
}

type SendRequest struct {
	Currency  string  `json:"currency"`
	Amount    float64 `json:"amount"`
	Recipient string  `json:"recipient"`
}

func (r *SendRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Currency, validation.Required, validation.Length(2, 5)),
		validation.Field(&r.Recipient, validation.Required),
	)
}

type LoanRequest struct {
	LoanType      string  `json:"loanType"`
	Amount        float64 `json:"amount"`
	MonthlyIncome float64 `json:"monthlyIncome"`
}

func (r *LoanRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LoanType, validation.Required),
		validation.Field(&r.Amount, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.MonthlyIncome, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

type SubmitKYCRequest struct {
	DocType   string `json:"docType"`
	FrontURL  string `json:"frontUrl"`
	BackURL   string `json:"backUrl"`
	SelfieURL string `json:"selfieUrl"`
}

func (r *SubmitKYCRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DocType, validation.Required),
		validation.Field(&r.FrontURL, validation.Required, is.URL),
		validation.Field(&r.BackURL, validation.Required, is.URL),
		validation.Field(&r.SelfieURL, validation.Required, is.URL),
	)
}

type ReviewRequest struct {
	Reason string `json:"reason"`
}

func (r *ReviewRequest) ValidateReject() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.Required, validation.Length(1, 500)),
	)
}
