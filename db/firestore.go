package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"flood-rescue/types"
)

const (
	casesCollection   = "requests"
	centersCollection = "evacuation_centers"
)

// FirestoreStore implements CaseStore and CenterStore on top of a real
// Firestore project. It is constructed explicitly and passed in; there
// is no package-level client.
type FirestoreStore struct {
	client *firestore.Client
	log    *logrus.Entry
}

// NewFirestoreStore builds a store from decoded service-account JSON.
func NewFirestoreStore(ctx context.Context, credsJSON []byte) (*FirestoreStore, error) {
	opt := option.WithCredentialsJSON(credsJSON)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firestore client: %w", err)
	}

	return &FirestoreStore{
		client: client,
		log:    logrus.WithField("component", "firestore"),
	}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) cases() *firestore.CollectionRef {
	return s.client.Collection(casesCollection)
}

func (s *FirestoreStore) centers() *firestore.CollectionRef {
	return s.client.Collection(centersCollection)
}

func wrapNotFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func docToCase(doc *firestore.DocumentSnapshot) (*types.Case, error) {
	var c types.Case
	if err := doc.DataTo(&c); err != nil {
		return nil, fmt.Errorf("decoding case %s: %w", doc.Ref.ID, err)
	}
	c.ID = doc.Ref.ID
	return &c, nil
}

func docToCenter(doc *firestore.DocumentSnapshot) (*types.EvacuationCenter, error) {
	var c types.EvacuationCenter
	if err := doc.DataTo(&c); err != nil {
		return nil, fmt.Errorf("decoding center %s: %w", doc.Ref.ID, err)
	}
	c.ID = doc.Ref.ID
	return &c, nil
}

func toUpdates(fields map[string]interface{}) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	return updates
}

func (s *FirestoreStore) Create(ctx context.Context, c *types.Case) (string, error) {
	ref, _, err := s.cases().Add(ctx, c)
	if err != nil {
		return "", fmt.Errorf("creating case: %w", err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*types.Case, error) {
	doc, err := s.cases().Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return docToCase(doc)
}

func (s *FirestoreStore) List(ctx context.Context) ([]*types.Case, error) {
	var cases []*types.Case
	iter := s.cases().Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating cases: %w", err)
		}
		c, err := docToCase(doc)
		if err != nil {
			s.log.WithError(err).Warn("skipping undecodable case document")
			continue
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func (s *FirestoreStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	_, err := s.cases().Doc(id).Update(ctx, toUpdates(fields))
	return wrapNotFound(err)
}

// UpdateIf runs a transaction so the state check and the write are
// evaluated against the same document revision. Firestore retries the
// transaction on contention, which is exactly the conditional-write
// semantics the claim flow needs: one racing writer commits, the other
// re-reads the new state and fails the check.
func (s *FirestoreStore) UpdateIf(ctx context.Context, id string, check func(*types.Case) error, fields map[string]interface{}) error {
	ref := s.cases().Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return wrapNotFound(err)
		}
		c, err := docToCase(doc)
		if err != nil {
			return err
		}
		if err := check(c); err != nil {
			return err
		}
		return tx.Update(ref, toUpdates(fields))
	})
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	_, err := s.cases().Doc(id).Delete(ctx)
	return wrapNotFound(err)
}

func (s *FirestoreStore) DeleteIf(ctx context.Context, id string, check func(*types.Case) error) error {
	ref := s.cases().Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return wrapNotFound(err)
		}
		c, err := docToCase(doc)
		if err != nil {
			return err
		}
		if err := check(c); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
}

// Subscribe delivers collection snapshot diffs until ctx is canceled.
// Firestore redelivers the current contents as "added" on (re)connect,
// which gives the at-least-once behavior the triage dispatcher relies on.
func (s *FirestoreStore) Subscribe(ctx context.Context, handler func(CaseEvent)) error {
	snapIter := s.cases().Snapshots(ctx)
	defer snapIter.Stop()

	for {
		snap, err := snapIter.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("case feed: %w", err)
		}

		for _, change := range snap.Changes {
			ev := CaseEvent{ID: change.Doc.Ref.ID}
			switch change.Kind {
			case firestore.DocumentAdded:
				ev.Type = EventAdded
			case firestore.DocumentModified:
				ev.Type = EventModified
			case firestore.DocumentRemoved:
				ev.Type = EventRemoved
			}

			if change.Kind != firestore.DocumentRemoved {
				c, err := docToCase(change.Doc)
				if err != nil {
					s.log.WithError(err).WithField("case", ev.ID).Warn("undecodable change event")
					continue
				}
				ev.Case = c
			}
			handler(ev)
		}
	}
}

func (s *FirestoreStore) CreateCenter(ctx context.Context, c *types.EvacuationCenter) (string, error) {
	ref, _, err := s.centers().Add(ctx, c)
	if err != nil {
		return "", fmt.Errorf("creating center: %w", err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) GetCenter(ctx context.Context, id string) (*types.EvacuationCenter, error) {
	doc, err := s.centers().Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return docToCenter(doc)
}

func (s *FirestoreStore) ListCenters(ctx context.Context) ([]*types.EvacuationCenter, error) {
	var centers []*types.EvacuationCenter
	iter := s.centers().Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating centers: %w", err)
		}
		c, err := docToCenter(doc)
		if err != nil {
			s.log.WithError(err).Warn("skipping undecodable center document")
			continue
		}
		centers = append(centers, c)
	}
	return centers, nil
}

// AppendResident is a single write combining a server-side array union
// with a server-side increment, so two concurrent registrations are both
// appended and both counted. No read-modify-write of the document.
func (s *FirestoreStore) AppendResident(ctx context.Context, centerID string, r types.Resident) error {
	_, err := s.centers().Doc(centerID).Update(ctx, []firestore.Update{
		{Path: "residents", Value: firestore.ArrayUnion(r)},
		{Path: "currentPeople", Value: firestore.Increment(1)},
	})
	return wrapNotFound(err)
}
