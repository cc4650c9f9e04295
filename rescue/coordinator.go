package rescue

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"flood-rescue/db"
	"flood-rescue/types"
)

// Typed state errors. Every transition attempted from an invalid source
// state fails with one of these so the officer's client can re-fetch and
// show the real current state instead of a silent no-op. All of them
// wrap db.ErrConflict.
var (
	ErrAlreadyClaimed  = fmt.Errorf("case is no longer waiting: %w", db.ErrConflict)
	ErrNotInProgress   = fmt.Errorf("case is not in progress: %w", db.ErrConflict)
	ErrRecoveryCase    = fmt.Errorf("case is marked for recovery: %w", db.ErrConflict)
	ErrNotRecoveryCase = fmt.Errorf("case is not marked for recovery: %w", db.ErrConflict)
)

// Coordinator implements the officer-facing case transitions:
// waiting -> in_progress -> completed, plus the orthogonal recovery
// branch whose terminal action is deletion. All transitions are
// conditional writes with the source-state check evaluated by the store
// at write time, so two racing officers resolve to one winner and one
// definite conflict.
type Coordinator struct {
	store db.CaseStore
	log   *logrus.Entry
}

func NewCoordinator(store db.CaseStore) *Coordinator {
	return &Coordinator{
		store: store,
		log:   logrus.WithField("component", "coordinator"),
	}
}

// Accept claims a waiting case for an officer, recording the assignment
// in the same write as the status transition. Losing a claim race
// returns ErrAlreadyClaimed; the loser must re-read, not retry blindly.
func (co *Coordinator) Accept(ctx context.Context, id, officerName, officerContact string) error {
	if officerName == "" {
		return errors.New("officer name is required")
	}

	err := co.store.UpdateIf(ctx, id,
		func(c *types.Case) error {
			if c.Status != types.StatusWaiting {
				return fmt.Errorf("accept case %s (status %s): %w", id, c.Status, ErrAlreadyClaimed)
			}
			return nil
		},
		map[string]interface{}{
			"status": types.StatusInProgress,
			"assignedOfficer": &types.Assignment{
				OfficerName:    officerName,
				OfficerContact: officerContact,
			},
		})
	if err != nil {
		return err
	}

	co.log.WithFields(logrus.Fields{"case": id, "officer": officerName}).Info("case accepted")
	return nil
}

// Complete closes a normal in-progress case. Recovery cases cannot be
// completed; their terminal action is FinishRecovery.
func (co *Coordinator) Complete(ctx context.Context, id string) error {
	err := co.store.UpdateIf(ctx, id,
		func(c *types.Case) error {
			if c.Status != types.StatusInProgress {
				return fmt.Errorf("complete case %s (status %s): %w", id, c.Status, ErrNotInProgress)
			}
			if c.IsBlackCase {
				return fmt.Errorf("complete case %s: %w", id, ErrRecoveryCase)
			}
			return nil
		},
		map[string]interface{}{
			"status": types.StatusCompleted,
		})
	if err != nil {
		return err
	}

	co.log.WithField("case", id).Info("case completed")
	return nil
}

// MarkRecovery flags an in-progress case as a recovery (black) case.
// Irreversible: there is no operation that clears the flag.
func (co *Coordinator) MarkRecovery(ctx context.Context, id string) error {
	err := co.store.UpdateIf(ctx, id,
		func(c *types.Case) error {
			if c.Status != types.StatusInProgress {
				return fmt.Errorf("mark recovery on case %s (status %s): %w", id, c.Status, ErrNotInProgress)
			}
			if c.IsBlackCase {
				return fmt.Errorf("mark recovery on case %s: %w", id, ErrRecoveryCase)
			}
			return nil
		},
		map[string]interface{}{
			"isBlackCase": true,
		})
	if err != nil {
		return err
	}

	co.log.WithField("case", id).Warn("case marked for recovery")
	return nil
}

// FinishRecovery deletes a recovery case. Deletion is the terminal
// action for black cases; the document disappears from all future feeds.
func (co *Coordinator) FinishRecovery(ctx context.Context, id string) error {
	err := co.store.DeleteIf(ctx, id, func(c *types.Case) error {
		if !c.IsBlackCase {
			return fmt.Errorf("finish recovery on case %s: %w", id, ErrNotRecoveryCase)
		}
		return nil
	})
	if err != nil {
		return err
	}

	co.log.WithField("case", id).Warn("recovery case closed and removed")
	return nil
}
