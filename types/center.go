package types

import "time"

// Resident is one entry in a center's append-only resident list.
type Resident struct {
	Name         string    `firestore:"name" json:"name"`
	Phone        string    `firestore:"phone" json:"phone"`
	RegisteredAt time.Time `firestore:"timestamp" json:"registered_at"`
}

// EvacuationCenter is one shelter document in "evacuation_centers".
// CurrentPeople must always equal len(Residents); both are advanced in a
// single atomic write on registration.
type EvacuationCenter struct {
	ID            string     `firestore:"-" json:"id"`
	Name          string     `firestore:"name" json:"name"`
	Location      GeoPoint   `firestore:"location" json:"location"`
	Capacity      int        `firestore:"capacity" json:"capacity"`
	CurrentPeople int        `firestore:"currentPeople" json:"current_people"`
	Contact       string     `firestore:"contact,omitempty" json:"contact,omitempty"`
	Facilities    []string   `firestore:"facilities" json:"facilities"`
	Residents     []Resident `firestore:"residents" json:"residents"`
}

// OverCapacity reports whether occupancy has reached the rated capacity.
// This is a warning condition only; shelters never refuse entry.
func (c *EvacuationCenter) OverCapacity() bool {
	return c.Capacity > 0 && c.CurrentPeople >= c.Capacity
}
