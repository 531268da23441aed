package model

import (
	"time"
)

// KYCStatus represents the review state of a user's identity documents.
type KYCStatus string

const (
	KYCStatusUnverified KYCStatus = "unverified"
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusApproved   KYCStatus = "approved"
	KYCStatusRejected   KYCStatus = "rejected"
)

// KYCDocuments are URLs to already-hosted document images. The backend never
// handles the files themselves.
type KYCDocuments struct {
	FrontURL  string `json:"front_url"`
	BackURL   string `json:"back_url"`
	SelfieURL string `json:"selfie_url"`
}

// KYCRecord is keyed by uid in the kyc collection. Created on submission,
// settled by a reviewer exactly once per cycle.
type KYCRecord struct {
	UID         string       `json:"uid"`
	DocType     string       `json:"doc_type"`
	Status      KYCStatus    `json:"status"`
	Documents   KYCDocuments `json:"documents"`
	SubmittedAt time.Time    `json:"submitted_at"`
	Review      Review       `json:"review,omitempty"`
}
