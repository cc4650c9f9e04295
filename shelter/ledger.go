package shelter

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"flood-rescue/db"
	"flood-rescue/types"
)

const defaultCapacity = 100

// Ledger tracks shelter occupancy. Registrations go through the store's
// atomic append+increment so concurrent writers are all counted; rated
// capacity is a soft limit surfaced as a warning, never a rejected
// write.
type Ledger struct {
	store db.CenterStore
	log   *logrus.Entry
}

func NewLedger(store db.CenterStore) *Ledger {
	return &Ledger{
		store: store,
		log:   logrus.WithField("component", "shelter"),
	}
}

// RegistrationResult reports the registration outcome along with the
// occupancy observed just after the write.
type RegistrationResult struct {
	Resident     types.Resident `json:"resident"`
	Occupancy    int            `json:"occupancy"`
	Capacity     int            `json:"capacity"`
	OverCapacity bool           `json:"over_capacity"`
}

// Register appends one resident to the center and increments its count
// in a single atomic store write.
func (l *Ledger) Register(ctx context.Context, centerID, name, phone string) (*RegistrationResult, error) {
	if name == "" || phone == "" {
		return nil, errors.New("resident name and phone are required")
	}

	resident := types.Resident{
		Name:         name,
		Phone:        phone,
		RegisteredAt: time.Now(),
	}
	if err := l.store.AppendResident(ctx, centerID, resident); err != nil {
		return nil, err
	}

	result := &RegistrationResult{Resident: resident}

	// The registration is already durable; the follow-up read only
	// decorates the response with occupancy.
	center, err := l.store.GetCenter(ctx, centerID)
	if err != nil {
		l.log.WithError(err).WithField("center", centerID).Warn("occupancy read after registration failed")
		return result, nil
	}

	result.Occupancy = center.CurrentPeople
	result.Capacity = center.Capacity
	result.OverCapacity = center.OverCapacity()
	if result.OverCapacity {
		l.log.WithFields(logrus.Fields{
			"center":    center.Name,
			"occupancy": center.CurrentPeople,
			"capacity":  center.Capacity,
		}).Warn("center over rated capacity")
	}
	return result, nil
}

// CreateCenter registers a new shelter with an empty resident list.
func (l *Ledger) CreateCenter(ctx context.Context, center *types.EvacuationCenter) (string, error) {
	if center.Name == "" {
		return "", errors.New("center name is required")
	}
	if center.Capacity <= 0 {
		center.Capacity = defaultCapacity
	}
	center.CurrentPeople = 0
	center.Residents = []types.Resident{}

	id, err := l.store.CreateCenter(ctx, center)
	if err != nil {
		return "", err
	}
	l.log.WithFields(logrus.Fields{"center": center.Name, "id": id}).Info("evacuation center created")
	return id, nil
}

func (l *Ledger) GetCenter(ctx context.Context, id string) (*types.EvacuationCenter, error) {
	return l.store.GetCenter(ctx, id)
}

func (l *Ledger) ListCenters(ctx context.Context) ([]*types.EvacuationCenter, error) {
	return l.store.ListCenters(ctx)
}
