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
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nexusbank/nexus"
	model2 "github.com/nexusbank/nexus/api/model"
)

// RequestDeposit opens a pending deposit and returns the funding
// instructions for the chosen method. No balance is touched until an
// administrator approves the deposit.
//
// Responses:
// - 400 Bad Request: If there's an error in binding or validating the request.
// - 201 Created: If the deposit request is successfully recorded.
func (a Api) RequestDeposit(c *gin.Context) {
	var req model2.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	receipt, err := a.nexus.RequestDeposit(c.Request.Context(), a.caller(c), nexus.DepositParams{
		Amount:     decimal.NewFromFloat(req.Amount),
		Currency:   req.Currency,
		MethodType: req.MethodType,
		Network:    req.Network,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// RequestWithdrawal reserves the amount from the caller's available balance
// and records a pending withdrawal for review.
//
// Responses:
// - 400 Bad Request: If there's an error in binding or validating the request.
// - 422 Unprocessable Entity: If the available balance cannot cover the amount.
// - 201 Created: If the withdrawal is successfully recorded.
func (a Api) RequestWithdrawal(c *gin.Context) {
	var req model2.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	txn, err := a.nexus.RequestWithdrawal(c.Request.Context(), a.caller(c), nexus.WithdrawalParams{
		Amount:   decimal.NewFromFloat(req.Amount),
		Currency: req.Currency,
		Method:   req.Method,
		Details:  req.Details,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, txn)
}

// Swap converts between two of the caller's balances at the stored rates and
// settles immediately.
func (a Api) Swap(c *gin.Context) {
	var req model2.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	txn, err := a.nexus.Swap(c.Request.Context(), a.caller(c), nexus.SwapParams{
		FromCurrency: req.FromCurrency,
		ToCurrency:   req.ToCurrency,
		Amount:       decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, txn)
}

// Send debits the caller's available balance and records a pending transfer
// to an external recipient.
func (a Api) Send(c *gin.Context) {
	var req model2.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	txn, err := a.nexus.Send(c.Request.Context(), a.caller(c), nexus.SendParams{
		Currency:  req.Currency,
		Amount:    decimal.NewFromFloat(req.Amount),
		Recipient: req.Recipient,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, txn)
}

// RequestLoan records a pending loan application and returns its reference
// code.
func (a Api) RequestLoan(c *gin.Context) {
	var req model2.LoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	loan, err := a.nexus.RequestLoan(c.Request.Context(), a.caller(c), nexus.LoanParams{
		LoanType:      req.LoanType,
		Amount:        decimal.NewFromFloat(req.Amount),
		MonthlyIncome: decimal.NewFromFloat(req.MonthlyIncome),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, loan)
}

// GetHistory returns the caller's transactions, newest first, optionally
// filtered by status via ?status=.
func (a Api) GetHistory(c *gin.Context) {
	status := c.Query("status")
	history, err := a.nexus.TransactionHistory(c.Request.Context(), a.caller(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}

// TrackStatus resolves a tracking code or loan reference to its current
// status. The route is public: no balances or identities are exposed.
//
// Responses:
// - 404 Not Found: If no record carries the code.
// - 200 OK: The status summary.
func (a Api) TrackStatus(c *gin.Context) {
	code, passed := c.Params.Get("code")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required. pass code in the route /status/:code"})
		return
	}

	lookup, err := a.nexus.TrackStatus(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lookup)
}
