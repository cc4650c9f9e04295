package triage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flood-rescue/db"
	"flood-rescue/types"
)

const testImage = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="

func newTestAnalyzer(t *testing.T, client *fakeModelClient) (*Analyzer, *db.MemoryStore) {
	t.Helper()
	store := db.NewMemoryStore()
	model := &Model{ID: "model-test", client: client}
	return NewAnalyzer(model, store, time.Second), store
}

func createCase(t *testing.T, store *db.MemoryStore, c *types.Case) *types.Case {
	t.Helper()
	if c.Status == "" {
		c.Status = types.StatusWaiting
	}
	id, err := store.Create(context.Background(), c)
	require.NoError(t, err)
	c.ID = id
	return c
}

func TestAnalyzerSkipsWithoutPhoto(t *testing.T) {
	client := &fakeModelClient{response: `{"risk_score":5,"priority":"Medium","summary":"x","needs":[]}`}
	analyzer, store := newTestAnalyzer(t, client)
	c := createCase(t, store, &types.Case{Name: "no photo", Description: "น้ำท่วม"})

	result, err := analyzer.Analyze(context.Background(), c)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNoPhoto)
	assert.Zero(t, client.invocations(), "no model call without a photo")
}

func TestAnalyzerWritesOnlyTriageResult(t *testing.T) {
	// Scenario: waist-deep water with elderly people trapped; the model
	// scores it 7/High. The status must stay waiting afterwards.
	client := &fakeModelClient{
		response: "```json\n{\"risk_score\":7,\"priority\":\"High\",\"summary\":\"น้ำถึงเอว มีผู้สูงอายุ\",\"needs\":[\"เรือ\",\"อาหาร\"]}\n```",
	}
	analyzer, store := newTestAnalyzer(t, client)
	c := createCase(t, store, &types.Case{
		Name:        "สมชาย",
		Description: "น้ำท่วมถึงเอว มีผู้สูงอายุ",
		ImageURL:    testImage,
	})

	result, err := analyzer.Analyze(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 7, result.RiskScore)
	assert.Equal(t, types.PriorityHigh, result.Priority)
	assert.Equal(t, []string{"เรือ", "อาหาร"}, result.Needs)

	stored, err := store.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Analysis)
	assert.Equal(t, 7, stored.Analysis.RiskScore)
	assert.Equal(t, types.StatusWaiting, stored.Status, "triage never changes status")
	assert.Nil(t, stored.AssignedOfficer)
	assert.False(t, stored.IsBlackCase)
}

func TestAnalyzerMalformedResponses(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"not json", "I cannot assess this image."},
		{"risk score out of range", `{"risk_score":99,"priority":"High","summary":"x","needs":[]}`},
		{"unknown priority", `{"risk_score":5,"priority":"Urgent","summary":"x","needs":[]}`},
		{"unknown field", `{"risk_score":5,"priority":"Low","summary":"x","needs":[],"confidence":0.9}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeModelClient{response: tc.response}
			analyzer, store := newTestAnalyzer(t, client)
			c := createCase(t, store, &types.Case{Description: "น้ำท่วม", ImageURL: testImage})

			_, err := analyzer.Analyze(context.Background(), c)
			assert.ErrorIs(t, err, ErrMalformedResponse)

			stored, err := store.Get(context.Background(), c.ID)
			require.NoError(t, err)
			assert.Nil(t, stored.Analysis, "malformed output must leave the case unanalyzed")
		})
	}
}

func TestAnalyzerModelFailure(t *testing.T) {
	client := &fakeModelClient{invokeErr: context.DeadlineExceeded}
	analyzer, store := newTestAnalyzer(t, client)
	c := createCase(t, store, &types.Case{Description: "น้ำท่วม", ImageURL: testImage})

	_, err := analyzer.Analyze(context.Background(), c)
	require.Error(t, err)

	stored, err := store.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Analysis)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
