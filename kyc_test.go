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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusbank/nexus/internal/apierror"
	"github.com/nexusbank/nexus/model"
)

func testDocuments() model.KYCDocuments {
	return model.KYCDocuments{
		FrontURL:  "https://docs.example/front.png",
		BackURL:   "https://docs.example/back.png",
		SelfieURL: "https://docs.example/selfie.png",
	}
}

func TestSubmitKYC(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	record, err := n.SubmitKYC(ctx, userCaller("u1"), "passport", testDocuments())
	require.NoError(t, err)
	assert.Equal(t, model.KYCStatusPending, record.Status)
	assert.Equal(t, "passport", record.DocType)

	status, err := n.GetKYCStatus(ctx, userCaller("u1"))
	require.NoError(t, err)
	assert.Equal(t, model.KYCStatusPending, status.Status)
}

func TestSubmitKYCWhilePending(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.SubmitKYC(ctx, userCaller("u1"), "passport", testDocuments())
	require.NoError(t, err)

	_, err = n.SubmitKYC(ctx, userCaller("u1"), "passport", testDocuments())
	var apiErr apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.ErrAlreadyProcessed, apiErr.Code)
}

func TestSubmitKYCAfterRejectionRestartsCycle(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.SubmitKYC(ctx, userCaller("u1"), "passport", testDocuments())
	require.NoError(t, err)
	require.NoError(t, n.RejectKYC(ctx, adminCaller("admin_1"), "u1", "blurry photos"))

	record, err := n.SubmitKYC(ctx, userCaller("u1"), "drivers_license", testDocuments())
	require.NoError(t, err)
	assert.Equal(t, model.KYCStatusPending, record.Status)
	assert.Equal(t, "drivers_license", record.DocType)
}

func TestGetKYCStatusNeverSubmitted(t *testing.T) {
	n := newTestNexus(t)

	record, err := n.GetKYCStatus(context.Background(), userCaller("u1"))
	require.NoError(t, err)
	assert.Equal(t, model.KYCStatusUnverified, record.Status)
	assert.Equal(t, "u1", record.UID)
}

func TestApproveKYCUpdatesProfile(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.RegisterUser(ctx, userCaller("u1"), RegisterParams{FullName: "Ada Kane", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = n.SubmitKYC(ctx, userCaller("u1"), "passport", testDocuments())
	require.NoError(t, err)

	require.NoError(t, n.ApproveKYC(ctx, adminCaller("admin_1"), "u1"))

	record, err := n.GetKYCStatus(ctx, userCaller("u1"))
	require.NoError(t, err)
	assert.Equal(t, model.KYCStatusApproved, record.Status)
	assert.Equal(t, "admin_1", record.Review.ReviewedBy)

	user, err := n.GetUserProfile(ctx, userCaller("u1"))
	require.NoError(t, err)
	assert.Equal(t, model.KYCStatusApproved, user.KYCStatus)
}

func TestApproveKYCWithoutProfile(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.SubmitKYC(ctx, userCaller("u1"), "passport", testDocuments())
	require.NoError(t, err)

	// The submission is settled even when no profile exists to mirror onto.
	require.NoError(t, n.ApproveKYC(ctx, adminCaller("admin_1"), "u1"))

	record, err := n.GetKYCStatus(ctx, userCaller("u1"))
	require.NoError(t, err)
	assert.Equal(t, model.KYCStatusApproved, record.Status)
}

func TestReviewKYCAlreadySettled(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.SubmitKYC(ctx, userCaller("u1"), "passport", testDocuments())
	require.NoError(t, err)
	require.NoError(t, n.ApproveKYC(ctx, adminCaller("admin_1"), "u1"))

	err = n.RejectKYC(ctx, adminCaller("admin_1"), "u1", "nope")
	var apiErr apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.ErrAlreadyProcessed, apiErr.Code)
}

func TestApproveKYCUnknownUser(t *testing.T) {
	n := newTestNexus(t)
	err := n.ApproveKYC(context.Background(), adminCaller("admin_1"), "ghost")
	assert.Equal(t, 404, apierror.MapErrorToHTTPStatus(err))
}

func TestPendingKYCList(t *testing.T) {
	n := newTestNexus(t)
	ctx := context.Background()

	_, err := n.SubmitKYC(ctx, userCaller("u1"), "passport", testDocuments())
	require.NoError(t, err)
	_, err = n.SubmitKYC(ctx, userCaller("u2"), "passport", testDocuments())
	require.NoError(t, err)
	require.NoError(t, n.ApproveKYC(ctx, adminCaller("admin_1"), "u2"))

	pending, err := n.PendingKYC(ctx, adminCaller("admin_1"))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "u1", pending[0].UID)
}
