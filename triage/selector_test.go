package triage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModelClient struct {
	mu        sync.Mutex
	probeErrs map[string]error
	probed    []string

	response  string
	invokeErr error
	invoked   []string
}

func (f *fakeModelClient) Probe(ctx context.Context, model string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, model)
	return f.probeErrs[model]
}

func (f *fakeModelClient) Invoke(ctx context.Context, model, prompt, imageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoked = append(f.invoked, model)
	if f.invokeErr != nil {
		return "", f.invokeErr
	}
	return f.response, nil
}

func (f *fakeModelClient) invocations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invoked)
}

func TestSelectModel(t *testing.T) {
	ctx := context.Background()

	t.Run("first failing candidate is skipped", func(t *testing.T) {
		client := &fakeModelClient{
			probeErrs: map[string]error{"model-a": errors.New("quota exceeded")},
			response:  "ok",
		}

		model, err := SelectModel(ctx, client, []string{"model-a", "model-b"})
		require.NoError(t, err)
		assert.Equal(t, "model-b", model.ID)
		assert.Equal(t, []string{"model-a", "model-b"}, client.probed)

		// Subsequent calls go to the bound model without re-probing.
		_, err = model.Invoke(ctx, "prompt", "data:image/jpeg;base64,xxx")
		require.NoError(t, err)
		_, err = model.Invoke(ctx, "prompt", "data:image/jpeg;base64,xxx")
		require.NoError(t, err)
		assert.Equal(t, []string{"model-b", "model-b"}, client.invoked)
		assert.Len(t, client.probed, 2, "selection must not probe again")
	})

	t.Run("scan stops at the first success", func(t *testing.T) {
		client := &fakeModelClient{}

		model, err := SelectModel(ctx, client, []string{"model-a", "model-b"})
		require.NoError(t, err)
		assert.Equal(t, "model-a", model.ID)
		assert.Equal(t, []string{"model-a"}, client.probed)
	})

	t.Run("exhausted candidates", func(t *testing.T) {
		client := &fakeModelClient{
			probeErrs: map[string]error{
				"model-a": errors.New("down"),
				"model-b": errors.New("down"),
			},
		}

		model, err := SelectModel(ctx, client, []string{"model-a", "model-b"})
		assert.Nil(t, model)
		assert.ErrorIs(t, err, ErrNoModelAvailable)
	})

	t.Run("empty list falls back to defaults", func(t *testing.T) {
		client := &fakeModelClient{}

		model, err := SelectModel(ctx, client, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultModelCandidates[0], model.ID)
	})
}
