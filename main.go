package main

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"flood-rescue/config"
	"flood-rescue/cronjobs"
	"flood-rescue/db"
	"flood-rescue/rescue"
	"flood-rescue/routes"
	"flood-rescue/shelter"
	"flood-rescue/triage"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	ctx := context.Background()

	var (
		caseStore   db.CaseStore
		centerStore db.CenterStore
	)
	if len(cfg.FirebaseCredentials) > 0 {
		store, err := db.NewFirestoreStore(ctx, cfg.FirebaseCredentials)
		if err != nil {
			logrus.WithError(err).Fatal("failed to initialize Firestore")
		}
		defer store.Close()
		caseStore, centerStore = store, store
	} else {
		logrus.Warn("FIREBASE_CREDENTIALS not set, using in-memory store")
		store := db.NewMemoryStore()
		caseStore, centerStore = store, store
	}

	coordinator := rescue.NewCoordinator(caseStore)
	ledger := shelter.NewLedger(centerStore)

	// Model selection happens once at startup. Losing every candidate
	// kills triage, not the process: the API and health endpoint keep
	// serving.
	triageModel := ""
	client := triage.NewOpenAIClient(cfg.OpenAIKey)
	model, err := triage.SelectModel(ctx, client, cfg.ModelCandidates)
	switch {
	case errors.Is(err, triage.ErrNoModelAvailable):
		logrus.Error("no AI model available, triage disabled (check API key)")
	case err != nil:
		logrus.WithError(err).Fatal("model selection failed")
	default:
		triageModel = model.ID
		analyzer := triage.NewAnalyzer(model, caseStore, cfg.ModelTimeout)
		dispatcher := triage.NewDispatcher(caseStore, analyzer)

		go func() {
			if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("case feed terminated")
			}
		}()
		cronjobs.Init(dispatcher)
	}

	r := routes.SetupRouter(routes.Deps{
		Cases:       caseStore,
		Centers:     centerStore,
		Coordinator: coordinator,
		Ledger:      ledger,
		TriageModel: triageModel,
	})

	logrus.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("failed to start server")
	}
}
