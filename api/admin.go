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

	model2 "github.com/nexusbank/nexus/api/model"
	"github.com/nexusbank/nexus/model"
)

// GetAdminDashboard returns the pending-work counts for the review console.
func (a Api) GetAdminDashboard(c *gin.Context) {
	dashboard, err := a.nexus.GetAdminDashboard(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// PendingDeposits lists deposits awaiting review, newest first.
func (a Api) PendingDeposits(c *gin.Context) {
	txns, err := a.nexus.PendingTransactions(c.Request.Context(), a.caller(c), model.TypeDeposit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// PendingWithdrawals lists withdrawals awaiting review, newest first.
func (a Api) PendingWithdrawals(c *gin.Context) {
	txns, err := a.nexus.PendingTransactions(c.Request.Context(), a.caller(c), model.TypeWithdrawal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// ApproveDeposit credits the deposit amount to the user's available balance
// and marks the transaction completed.
//
// Responses:
// - 404 Not Found: If the transaction does not exist.
// - 409 Conflict: If the transaction was already reviewed.
// - 200 OK: If the deposit is approved.
func (a Api) ApproveDeposit(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/approve"})
		return
	}

	if err := a.nexus.ApproveDeposit(c.Request.Context(), a.caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deposit approved"})
}

// RejectDeposit marks the deposit rejected with the reviewer's reason. No
// balance is touched.
func (a Api) RejectDeposit(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/reject"})
		return
	}

	req, ok := bindReview(c)
	if !ok {
		return
	}

	if err := a.nexus.RejectDeposit(c.Request.Context(), a.caller(c), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deposit rejected"})
}

// ApproveWithdrawal settles the reservation: the pending amount leaves the
// ledger and the transaction completes.
func (a Api) ApproveWithdrawal(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/approve"})
		return
	}

	if err := a.nexus.ApproveWithdrawal(c.Request.Context(), a.caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Withdrawal approved"})
}

// RejectWithdrawal releases the reservation back to available and marks the
// transaction rejected.
func (a Api) RejectWithdrawal(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/reject"})
		return
	}

	req, ok := bindReview(c)
	if !ok {
		return
	}

	if err := a.nexus.RejectWithdrawal(c.Request.Context(), a.caller(c), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Withdrawal rejected"})
}

// PendingKYC lists identity submissions awaiting review, oldest first.
func (a Api) PendingKYC(c *gin.Context) {
	records, err := a.nexus.PendingKYC(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": records})
}

// ApproveKYC marks the user's identity verified.
func (a Api) ApproveKYC(c *gin.Context) {
	uid, passed := c.Params.Get("uid")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required. pass uid in the route /:uid/approve"})
		return
	}

	if err := a.nexus.ApproveKYC(c.Request.Context(), a.caller(c), uid); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "KYC approved"})
}

// RejectKYC marks the submission rejected; the user may submit again.
func (a Api) RejectKYC(c *gin.Context) {
	uid, passed := c.Params.Get("uid")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required. pass uid in the route /:uid/reject"})
		return
	}

	req, ok := bindReview(c)
	if !ok {
		return
	}

	if err := a.nexus.RejectKYC(c.Request.Context(), a.caller(c), uid, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "KYC rejected"})
}

// PendingLoans lists loan applications awaiting review, newest first.
func (a Api) PendingLoans(c *gin.Context) {
	loans, err := a.nexus.PendingLoans(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// ApproveLoan credits the loan principal to the user's USD balance and marks
// the application approved.
func (a Api) ApproveLoan(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/approve"})
		return
	}

	if err := a.nexus.ApproveLoan(c.Request.Context(), a.caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Loan approved"})
}

// RejectLoan marks the application rejected with the reviewer's reason.
func (a Api) RejectLoan(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /:id/reject"})
		return
	}

	req, ok := bindReview(c)
	if !ok {
		return
	}

	if err := a.nexus.RejectLoan(c.Request.Context(), a.caller(c), id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Loan rejected"})
}

// bindReview reads the rejection body. Rejections must carry a reason.
func bindReview(c *gin.Context) (model2.ReviewRequest, bool) {
	var req model2.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return req, false
	}
	if err := req.ValidateReject(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return req, false
	}
	return req, true
}
