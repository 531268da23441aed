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

	"github.com/nexusbank/nexus/internal/apierror"
	"github.com/nexusbank/nexus/model"
	"github.com/nexusbank/nexus/store"
)

// SubmitKYC records the caller's identity documents for review. Resubmission
// restarts a rejected cycle; a pending or approved record is not overwritten.
func (n *Nexus) SubmitKYC(ctx context.Context, caller Caller, docType string, documents model.KYCDocuments) (*model.KYCRecord, error) {
	ctx, span := tracer.Start(ctx, "Submit KYC")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	record := &model.KYCRecord{
		UID:         caller.UID,
		DocType:     docType,
		Status:      model.KYCStatusPending,
		Documents:   documents,
		SubmittedAt: n.clock(),
	}

	err := n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		var existing model.KYCRecord
		err := txn.Get(ctx, CollectionKYC, caller.UID, &existing)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err == nil && (existing.Status == model.KYCStatusPending || existing.Status == model.KYCStatusApproved) {
			return apierror.NewAPIError(apierror.ErrAlreadyProcessed, "KYC already submitted",
				fmt.Errorf("kyc for %s has status %s", caller.UID, existing.Status))
		}
		return txn.Put(CollectionKYC, caller.UID, record)
	})
	if err != nil {
		return nil, logAndRecordError(span, "kyc submission failed: ", mapLedgerError(err, ""))
	}
	return record, nil
}

// GetKYCStatus returns the caller's KYC record. A user who never submitted
// gets a bare unverified record rather than an error.
func (n *Nexus) GetKYCStatus(ctx context.Context, caller Caller) (*model.KYCRecord, error) {
	ctx, span := tracer.Start(ctx, "Get KYC Status")
	defer span.End()

	if err := caller.requireUser(); err != nil {
		return nil, err
	}

	var record model.KYCRecord
	err := n.store.Get(ctx, CollectionKYC, caller.UID, &record)
	if errors.Is(err, store.ErrNotFound) {
		return &model.KYCRecord{UID: caller.UID, Status: model.KYCStatusUnverified}, nil
	}
	if err != nil {
		return nil, logAndRecordError(span, "kyc status failed: ", mapLedgerError(err, ""))
	}
	return &record, nil
}

func (n *Nexus) loadPendingKYC(ctx context.Context, txn store.Txn, uid string) (*model.KYCRecord, error) {
	var record model.KYCRecord
	if err := txn.Get(ctx, CollectionKYC, uid, &record); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "KYC record not found", err)
		}
		return nil, err
	}
	if record.Status != model.KYCStatusPending {
		return nil, apierror.NewAPIError(apierror.ErrAlreadyProcessed, "Already processed",
			fmt.Errorf("kyc for %s has status %s", uid, record.Status))
	}
	return &record, nil
}

// reviewKYC settles a pending KYC record and mirrors the outcome onto the
// user profile in the same atomic transaction.
func (n *Nexus) reviewKYC(ctx context.Context, caller Caller, uid string, approved bool, reason string) error {
	status := model.KYCStatusRejected
	if approved {
		status = model.KYCStatusApproved
	}

	return n.store.RunAtomic(ctx, func(ctx context.Context, txn store.Txn) error {
		record, err := n.loadPendingKYC(ctx, txn, uid)
		if err != nil {
			return err
		}

		record.Status = status
		record.Review = n.reviewStamp(caller.UID, reason)
		if err := txn.Put(CollectionKYC, uid, record); err != nil {
			return err
		}

		var user model.User
		if err := txn.Get(ctx, CollectionUsers, uid, &user); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// KYC can exist without a profile when registration was
				// interrupted; the record alone carries the decision then.
				return nil
			}
			return err
		}
		user.KYCStatus = status
		return txn.Put(CollectionUsers, uid, &user)
	})
}

// ApproveKYC marks the user's KYC approved and flips the profile status.
func (n *Nexus) ApproveKYC(ctx context.Context, caller Caller, uid string) error {
	ctx, span := tracer.Start(ctx, "Approve KYC")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return err
	}

	if err := n.reviewKYC(ctx, caller, uid, true, ""); err != nil {
		return logAndRecordError(span, "kyc approval failed: ", mapLedgerError(err, "KYC record not found"))
	}
	n.notify(ctx, uid, "Identity verified", "Your identity documents have been approved.")
	return nil
}

// RejectKYC marks the user's KYC rejected with a reason.
func (n *Nexus) RejectKYC(ctx context.Context, caller Caller, uid, reason string) error {
	ctx, span := tracer.Start(ctx, "Reject KYC")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return err
	}

	if err := n.reviewKYC(ctx, caller, uid, false, reason); err != nil {
		return logAndRecordError(span, "kyc rejection failed: ", mapLedgerError(err, "KYC record not found"))
	}
	n.notify(ctx, uid, "Identity review failed", reason)
	return nil
}

// PendingKYC lists KYC submissions awaiting review, oldest first so the
// queue is worked in submission order.
func (n *Nexus) PendingKYC(ctx context.Context, caller Caller) ([]model.KYCRecord, error) {
	ctx, span := tracer.Start(ctx, "Pending KYC")
	defer span.End()

	if err := caller.requireAdmin(); err != nil {
		return nil, err
	}

	docs, err := n.store.Query(ctx, CollectionKYC, store.Query{
		Eq: map[string]string{"status": string(model.KYCStatusPending)},
	})
	if err != nil {
		return nil, logAndRecordError(span, "pending kyc failed: ", mapLedgerError(err, ""))
	}

	records := make([]model.KYCRecord, 0, len(docs))
	for _, doc := range docs {
		var record model.KYCRecord
		if err := doc.Decode(&record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
