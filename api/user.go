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

	"github.com/nexusbank/nexus"
	model2 "github.com/nexusbank/nexus/api/model"
	"github.com/nexusbank/nexus/model"
)

// Register creates the onboarding profile for the authenticated caller.
// It binds the incoming JSON request to a RegisterRequest object, validates
// it, and creates the profile with zero balances in every supported currency.
//
// Responses:
// - 400 Bad Request: If there's an error in binding or validating the request.
// - 409 Conflict: If the caller is already registered.
// - 201 Created: If the profile is successfully created.
func (a Api) Register(c *gin.Context) {
	var req model2.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	user, err := a.nexus.RegisterUser(c.Request.Context(), a.caller(c), nexus.RegisterParams{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetDashboard returns the caller's balances and recent activity.
func (a Api) GetDashboard(c *gin.Context) {
	dashboard, err := a.nexus.GetUserDashboard(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetHeader returns the lightweight name + unread-notification flag the web
// frontend polls on every page.
func (a Api) GetHeader(c *gin.Context) {
	header, err := a.nexus.GetHeaderData(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, header)
}

// GetProfile returns the caller's profile document.
func (a Api) GetProfile(c *gin.Context) {
	user, err := a.nexus.GetUserProfile(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetStats returns aggregated deposit/withdrawal figures for the caller over
// the requested window (30d or 90d, default 30d).
func (a Api) GetStats(c *gin.Context) {
	window := c.DefaultQuery("window", "30d")
	stats, err := a.nexus.GetUserStats(c.Request.Context(), a.caller(c), window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SubmitKYC records the caller's identity documents for review.
//
// Responses:
// - 400 Bad Request: If there's an error in binding or validating the request.
// - 409 Conflict: If a submission is already pending or approved.
// - 201 Created: If the submission is accepted.
func (a Api) SubmitKYC(c *gin.Context) {
	var req model2.SubmitKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	record, err := a.nexus.SubmitKYC(c.Request.Context(), a.caller(c), req.DocType, model.KYCDocuments{
		FrontURL:  req.FrontURL,
		BackURL:   req.BackURL,
		SelfieURL: req.SelfieURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetKYCStatus returns the caller's verification state. Callers who never
// submitted documents read as unverified rather than 404.
func (a Api) GetKYCStatus(c *gin.Context) {
	record, err := a.nexus.GetKYCStatus(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
