package entity

import "slices"

// NodePatch is a partial update for a [Node]. Only non-nil fields are merged;
// the node ID cannot be changed through a patch.
type NodePatch struct {
	Label              *string           `json:"label,omitempty"`
	Color              *string           `json:"color,omitempty"`
	EntityType         *string           `json:"entityType,omitempty"`
	Jurisdiction       *string           `json:"jurisdiction,omitempty"`
	TaxID              *string           `json:"taxId,omitempty"`
	Officers           *[]string         `json:"officers,omitempty"`
	FilingDueDate      *Date             `json:"filingDueDate,omitempty"`
	IsDraft            *bool             `json:"isDraft,omitempty"`
	TaxResidency       *string           `json:"taxResidency,omitempty"`
	Currency           *string           `json:"currency,omitempty"`
	CITRate            *float64          `json:"citRate,omitempty"`
	Region             *string           `json:"region,omitempty"`
	ComplianceStatus   *ComplianceStatus `json:"complianceStatus,omitempty"`
	PillarTwoStatus    *PillarTwoStatus  `json:"pillarTwoStatus,omitempty"`
	EffectiveOwnership *float64          `json:"effectiveOwnership,omitempty"`
}

// Apply merges the set fields of p into n. Setting Label to "" restores the
// ID default.
func (p NodePatch) Apply(n *Node) {
	setIf(&n.Label, p.Label)
	setIf(&n.Color, p.Color)
	setIf(&n.EntityType, p.EntityType)
	setIf(&n.Jurisdiction, p.Jurisdiction)
	setIf(&n.TaxID, p.TaxID)
	if p.Officers != nil {
		n.Officers = slices.Clone(*p.Officers)
	}
	if p.FilingDueDate != nil {
		n.FilingDueDate = clonePtr(p.FilingDueDate)
	}
	setIf(&n.IsDraft, p.IsDraft)
	setIf(&n.TaxResidency, p.TaxResidency)
	setIf(&n.Currency, p.Currency)
	if p.CITRate != nil {
		n.CITRate = clonePtr(p.CITRate)
	}
	setIf(&n.Region, p.Region)
	setIf(&n.ComplianceStatus, p.ComplianceStatus)
	setIf(&n.PillarTwoStatus, p.PillarTwoStatus)
	if p.EffectiveOwnership != nil {
		n.EffectiveOwnership = clonePtr(p.EffectiveOwnership)
	}
	n.Normalize()
}

// Empty reports whether p sets no field.
func (p NodePatch) Empty() bool { return p == NodePatch{} }

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
