package triage

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ErrNoModelAvailable means every candidate failed its probe. Triage is
// dead for this process, but the caller should keep the rest of the
// service alive.
var ErrNoModelAvailable = errors.New("no usable model among candidates")

// DefaultModelCandidates is the fallback probe order: newest and fastest
// first, older but dependable last.
var DefaultModelCandidates = []string{
	openai.GPT4o,
	openai.GPT4oMini,
	openai.GPT4Turbo,
	openai.GPT4VisionPreview,
}

// Model is a handle bound to the one candidate that passed its probe.
// It is selected once at startup and reused for every triage call; a
// model that starts failing later is handled per call, not re-probed.
type Model struct {
	ID     string
	client ModelClient
}

func (m *Model) Invoke(ctx context.Context, prompt, imageURL string) (string, error) {
	return m.client.Invoke(ctx, m.ID, prompt, imageURL)
}

// SelectModel probes candidates in order and binds the first that
// answers. Probe failures are logged and skipped.
func SelectModel(ctx context.Context, client ModelClient, candidates []string) (*Model, error) {
	log := logrus.WithField("component", "selector")
	if len(candidates) == 0 {
		candidates = DefaultModelCandidates
	}

	for _, id := range candidates {
		log.WithField("model", id).Info("probing model candidate")
		if err := client.Probe(ctx, id); err != nil {
			log.WithField("model", id).WithError(err).Warn("model candidate unusable, skipping")
			continue
		}
		log.WithField("model", id).Info("model selected")
		return &Model{ID: id, client: client}, nil
	}

	return nil, ErrNoModelAvailable
}
