package model

import "time"

// Position is the stance an argument takes toward a bill
type Position string

const (
	PositionSupport Position = "support" // Argues in favor of the bill
	PositionOppose  Position = "oppose"  // Argues against the bill
	PositionNeutral Position = "neutral" // No clear stance, or ambiguous
)

// Positions lists all recognized positions in stable order
func Positions() []Position {
	return []Position{PositionSupport, PositionOppose, PositionNeutral}
}

// Comment is the external input: one citizen comment on a bill.
// Comments are immutable once created; the comment store is an
// external collaborator and this type only mirrors what it hands us.
type Comment struct {
	ID        string    `json:"id" yaml:"id"`
	BillID    string    `json:"bill_id" yaml:"bill_id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// ExtractedArgument is a position-bearing unit of meaning derived from
// one comment. Records are append-only: corrections create new records.
type ExtractedArgument struct {
	ID              string    `json:"id"`                // Stable natural id
	SourceCommentID string    `json:"source_comment_id"` // Immutable FK to the comment
	BillID          string    `json:"bill_id"`
	UserID          string    `json:"user_id,omitempty"` // Carried for coalition/astroturf signals
	Position        Position  `json:"position"`
	Strength        float64   `json:"strength"`   // 0-100, claim count x mean evidence credibility
	Confidence      float64   `json:"confidence"` // 0-1, classifier confidence in the position
	ClaimIDs        []string  `json:"claim_ids"`  // Ordered
	Text            string    `json:"text"`       // Span of the comment this argument covers
	CreatedAt       time.Time `json:"created_at"`
}

// Claim is an atomic factual assertion within an argument
type Claim struct {
	ID             string   `json:"id"`
	ArgumentID     string   `json:"argument_id"`
	Text           string   `json:"text"`
	NormalizedText string   `json:"normalized_text"` // Dedup key: lowercased, collapsed whitespace, no punctuation
	EvidenceIDs    []string `json:"evidence_ids"`
}
