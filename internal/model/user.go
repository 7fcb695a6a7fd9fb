package model

// CompetenceTrack is the fixed set of study tracks a lab user can belong to.
type CompetenceTrack string

const (
	TrackMotionDesign CompetenceTrack = "motion_design"
	TrackDigitalArt   CompetenceTrack = "digital_art"
	TrackVRAR         CompetenceTrack = "vr_ar"
	TrackMobileDev    CompetenceTrack = "mobile_dev"
)

// Valid reports whether t is one of the known tracks.
func (t CompetenceTrack) Valid() bool {
	switch t {
	case TrackMotionDesign, TrackDigitalArt, TrackVRAR, TrackMobileDev:
		return true
	}
	return false
}

// User is a registered lab user.  The ID is either the external identity
// issued by the auth provider (chat-bot relay) or a locally generated uuid.
// Users are immutable after registration except through administrative
// edits, and are never auto-deleted.
//
// Fields:
//  ID         – external or locally generated identifier.
//  Name       – full display name.
//  Track      – competence track the user studies on.
//  Group      – optional group label.
//  Department – optional department label.
type User struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Track      CompetenceTrack `json:"track"`
	Group      string          `json:"group,omitempty"`
	Department string          `json:"department,omitempty"`
}
