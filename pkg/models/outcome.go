package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Every processed file ends in exactly one of these.
const (
	OutcomeOrganized           = "organized"
	OutcomeUncertainOrganized  = "uncertain-organized"
	OutcomeCorruptMoved        = "corrupt-moved"
	OutcomeCorruptReportedOnly = "corrupt-reported-only"
	OutcomePamphletMoved       = "pamphlet-moved"
	OutcomePamphletSkipped     = "pamphlet-skipped"
	OutcomeSkipped             = "skipped"
)

type Outcome struct {
	bun.BaseModel `bun:"table:outcomes,alias:o"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	RunID       string    `bun:",nullzero" json:"run_id"`
	Path        string    `bun:",nullzero" json:"path"`
	Kind        string    `bun:",nullzero" json:"kind"`
	Reason      *string   `json:"reason,omitempty"`
	Destination *string   `json:"destination,omitempty"`
	ISBNs       *string   `bun:"isbns" json:"isbns,omitempty"`
}

// Skipped reports whether the file was left where it was.
func (o *Outcome) Skipped() bool {
	return o.Kind == OutcomeSkipped || o.Kind == OutcomePamphletSkipped || o.Kind == OutcomeCorruptReportedOnly
}
