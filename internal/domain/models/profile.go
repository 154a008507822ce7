package models

// ElectionStage classifies the user's declared candidacy status. The
// stage selects which election-law phrasing rules apply to a draft.
type ElectionStage string

const (
	// StageNone: no declared candidacy, only the universal rules apply.
	StageNone ElectionStage = "일반"
	// StagePreCandidate: registered preliminary candidate.
	StagePreCandidate ElectionStage = "예비후보"
	// StageCandidate: registered candidate inside the official campaign
	// window.
	StageCandidate ElectionStage = "후보"
)

// Category is the declared content type of a draft request.
type Category string

const (
	// CategoryCurrentAffairs is commentary on current events. It must
	// stay diagnostic: prescriptive, pledge-like language is neutralized.
	CategoryCurrentAffairs Category = "current-affairs"
	CategoryPolicy         Category = "policy"
	CategoryDaily          Category = "daily"
	CategoryVision         Category = "vision"
)

// UserProfile carries the writer-identity facts the pipeline needs:
// tone for prompting, stage for rule selection, family facts for the
// consistency check.
type UserProfile struct {
	OwnerID     string        `json:"owner_id"`
	Name        string        `json:"name"`
	Region      string        `json:"region"`
	Party       string        `json:"party"`
	Stage       ElectionStage `json:"stage"`
	Tone        string        `json:"tone"`
	HasChildren bool          `json:"has_children"`
}
