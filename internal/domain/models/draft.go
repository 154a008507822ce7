package models

// SectionType identifies one of the five fixed slots of an outline.
type SectionType string

const (
	SectionIntro SectionType = "intro"
	SectionBody1 SectionType = "body1"
	SectionBody2 SectionType = "body2"
	SectionBody3 SectionType = "body3"
	SectionOutro SectionType = "outro"
)

// SectionOrder is the canonical output order. Drafting fans out
// concurrently, but assembly always follows this order.
var SectionOrder = [5]SectionType{
	SectionIntro,
	SectionBody1,
	SectionBody2,
	SectionBody3,
	SectionOutro,
}

// SectionCount is fixed: the outline skeleton is static so a model can
// never silently omit a section.
const SectionCount = 5

// SectionSpec is the per-section drafting instruction.
type SectionSpec struct {
	Type    SectionType `json:"type"`
	Guide   string      `json:"guide"`
	Keyword string      `json:"keyword,omitempty"`
}

// Outline is the drafting plan: a title plus exactly five section specs
// in SectionOrder.
type Outline struct {
	Title    string        `json:"title"`
	Sections []SectionSpec `json:"sections"`
}

// Draft is one assembled document. The Corrector replaces drafts whole;
// it never patches in place.
type Draft struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Outline      *Outline `json:"outline,omitempty"`
	AttemptIndex int      `json:"attempt_index"`
}
