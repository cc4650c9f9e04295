package types

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a rescue case.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Priority buckets assigned by the triage model.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type GeoPoint struct {
	Lat float64 `firestore:"lat" json:"lat"`
	Lng float64 `firestore:"lng" json:"lng"`
}

// Address is the resolved postal hierarchy for a report location.
type Address struct {
	Province    string `firestore:"province" json:"province"`
	District    string `firestore:"district" json:"district"`
	Subdistrict string `firestore:"subdistrict" json:"subdistrict"`
	Details     string `firestore:"details" json:"details"`
}

// Assignment records which officer claimed a case. It is written
// atomically with the waiting -> in_progress transition.
type Assignment struct {
	OfficerName    string `firestore:"officerName" json:"officer_name"`
	OfficerContact string `firestore:"officerContact" json:"officer_contact"`
}

// TriageResult is the structured risk record produced by the AI worker.
// Absence on a case means "not yet analyzed".
type TriageResult struct {
	RiskScore int      `firestore:"risk_score" json:"risk_score"`
	Priority  Priority `firestore:"priority" json:"priority"`
	Summary   string   `firestore:"summary" json:"summary"`
	Needs     []string `firestore:"needs" json:"needs"`
}

func (r *TriageResult) Validate() error {
	if r.RiskScore < 0 || r.RiskScore > 10 {
		return fmt.Errorf("risk_score %d out of range 0-10", r.RiskScore)
	}
	switch r.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	default:
		return fmt.Errorf("unknown priority %q", r.Priority)
	}
}

// Case is one incident report document in the "requests" collection.
type Case struct {
	ID string `firestore:"-" json:"id"`

	// Reporter-owned fields, immutable after creation.
	Name         string    `firestore:"name" json:"name"`
	Contact      string    `firestore:"contact" json:"contact"`
	Description  string    `firestore:"description" json:"description"`
	PeopleCount  int       `firestore:"peopleCount" json:"people_count"`
	WaterLevel   string    `firestore:"waterLevel,omitempty" json:"water_level,omitempty"`
	ReporterType string    `firestore:"reporterType,omitempty" json:"reporter_type,omitempty"`
	Location     *GeoPoint `firestore:"location,omitempty" json:"location,omitempty"`
	Address      *Address  `firestore:"address,omitempty" json:"address,omitempty"`
	// ImageURL holds the photo as a base64 data URL, as uploaded by the
	// reporting client.
	ImageURL string `firestore:"imageUrl,omitempty" json:"image_url,omitempty"`

	Status Status `firestore:"status" json:"status"`
	// IsBlackCase marks a case where rescue has been superseded by body
	// recovery. Valid only while the case is in progress; never cleared.
	IsBlackCase     bool          `firestore:"isBlackCase" json:"is_black_case"`
	Analysis        *TriageResult `firestore:"ai_analysis,omitempty" json:"ai_analysis,omitempty"`
	AssignedOfficer *Assignment   `firestore:"assignedOfficer,omitempty" json:"assigned_officer,omitempty"`

	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
}

// TriageEligible reports whether the AI worker should analyze this case:
// still waiting and never analyzed before.
func (c *Case) TriageEligible() bool {
	return c.Status == StatusWaiting && c.Analysis == nil
}
