package model

import (
	"fmt"
	"strings"
)

// VerificationStatus is the review outcome of a piece of evidence
type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "VERIFIED"
	StatusDisputed   VerificationStatus = "DISPUTED"
	StatusUnverified VerificationStatus = "UNVERIFIED"
	StatusFalsified  VerificationStatus = "FALSIFIED"
)

// DefaultUnverifiedScore is the neutral score of evidence nobody has reviewed yet
const DefaultUnverifiedScore = 0.5

// ParseVerificationStatus accepts any casing of a known status
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch st := VerificationStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusVerified, StatusDisputed, StatusUnverified, StatusFalsified:
		return st, nil
	case "":
		return StatusUnverified, nil
	default:
		return "", fmt.Errorf("unknown verification status %q", s)
	}
}

// StatusScore maps a status to its evidence score. FALSIFIED is always
// exactly 0; unverified evidence takes the supplied neutral value.
func StatusScore(status VerificationStatus, unverified float64) float64 {
	switch status {
	case StatusVerified:
		return 1.0
	case StatusDisputed:
		return 0.5
	case StatusFalsified:
		return 0.0
	default:
		return unverified
	}
}

// Evidence represents a cited source attached to arguments
type Evidence struct {
	ID            string             `json:"id" yaml:"id"`
	URL           string             `json:"url" yaml:"url"`                                     // Citation reference
	Description   string             `json:"description,omitempty" yaml:"description,omitempty"` // Human summary
	Status        VerificationStatus `json:"status" yaml:"status"`
	EvidenceScore float64            `json:"evidence_score" yaml:"evidence_score"` // Derived from Status only
}

// NewEvidence creates evidence with a score derived from its status
func NewEvidence(id, url, description string, status VerificationStatus, unverified float64) Evidence {
	if status == "" {
		status = StatusUnverified
	}
	return Evidence{
		ID:            id,
		URL:           url,
		Description:   description,
		Status:        status,
		EvidenceScore: StatusScore(status, unverified),
	}
}

func (e Evidence) NodeID() string { return e.ID }
func (e Evidence) Kind() NodeKind { return KindEvidence }
func (e Evidence) Score() float64 { return e.EvidenceScore }
func (Evidence) isNode()          {}

// WithScore returns a copy of the evidence carrying the given score
func (e Evidence) WithScore(score float64) Evidence {
	e.EvidenceScore = score
	return e
}
