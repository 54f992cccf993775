package model

// EvidenceType classifies the nature of cited support
type EvidenceType string

const (
	EvidenceStatistical    EvidenceType = "statistical"     // Studies, figures, percentages
	EvidenceAnecdotal      EvidenceType = "anecdotal"       // Personal experience
	EvidenceExpertOpinion  EvidenceType = "expert_opinion"  // Named experts, institutions
	EvidenceLegalPrecedent EvidenceType = "legal_precedent" // Statutes, rulings, prior acts
)

// VerificationStatus is the outcome of checking evidence against the
// knowledge base
type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "verified"   // Matched a recognized source
	StatusUnverified VerificationStatus = "unverified" // Default; also the lookup-failure fallback
	StatusDisputed   VerificationStatus = "disputed"   // Matched the contested-claims registry
	StatusFalse      VerificationStatus = "false"      // Contradicted by the ground-truth store
)

// Evidence is supporting material cited for a claim. Append-only.
type Evidence struct {
	ID               string             `json:"id"`
	ClaimID          string             `json:"claim_id"`
	Type             EvidenceType       `json:"evidence_type"`
	Source           string             `json:"source"` // As cited, e.g. "2023 study"
	Status           VerificationStatus `json:"verification_status"`
	CredibilityScore float64            `json:"credibility_score"` // 0-1, see CredibilityScore
}

// Base credibility weight per evidence type
var typeWeights = map[EvidenceType]float64{
	EvidenceStatistical:    0.8,
	EvidenceExpertOpinion:  0.7,
	EvidenceLegalPrecedent: 0.9,
	EvidenceAnecdotal:      0.3,
}

// Multiplier per verification status
var statusMultipliers = map[VerificationStatus]float64{
	StatusVerified:   1.0,
	StatusUnverified: 0.6,
	StatusDisputed:   0.3,
	StatusFalse:      0.0,
}

// CredibilityScore computes base_type_weight x status_multiplier.
// Invariant: result is in [0,1], and status=false always yields 0.
func CredibilityScore(t EvidenceType, s VerificationStatus) float64 {
	w, ok := typeWeights[t]
	if !ok {
		w = typeWeights[EvidenceAnecdotal]
	}
	m, ok := statusMultipliers[s]
	if !ok {
		m = statusMultipliers[StatusUnverified]
	}
	return w * m
}

// EvidenceAssessment is the validator's verdict for one claim
type EvidenceAssessment struct {
	ClaimID  string     `json:"claim_id"`
	Evidence []Evidence `json:"evidence"` // Scored evidentiary spans, may be empty
}
