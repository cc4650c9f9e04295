package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"flood-rescue/db"
	"flood-rescue/types"
)

// Skip reasons. Neither writes anything to the case; a skipped case is
// only retried if the feed redelivers it or an operator re-triggers.
var (
	ErrNoPhoto           = errors.New("case has no photo")
	ErrMalformedResponse = errors.New("model response is not valid triage JSON")
)

const defaultModelTimeout = 60 * time.Second

const promptTemplate = `คุณคือเจ้าหน้าที่กู้ภัย AI
ดูรูปภาพและข้อมูล: "%s"

ประเมินความเสี่ยงและตอบเป็น JSON เท่านั้น (ห้ามมี markdown):
{
  "risk_score": (คะแนน 0-10, 10คือวิกฤตสุด),
  "priority": ("High" หรือ "Medium" หรือ "Low"),
  "summary": (สรุปสั้นๆ ภาษาไทย ไม่เกิน 10 คำ),
  "needs": [(อาเรย์สิ่งที่คาดว่าต้องการ เช่น เรือ, อาหาร, ยา)]
}`

// Analyzer scores a case's photo and description with the selected
// model and writes the result back. It never touches status, assignment
// or the recovery flag, so officer-facing actions stay available
// whatever triage decides.
type Analyzer struct {
	model   *Model
	store   db.CaseStore
	timeout time.Duration
	log     *logrus.Entry
}

func NewAnalyzer(model *Model, store db.CaseStore, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = defaultModelTimeout
	}
	return &Analyzer{
		model:   model,
		store:   store,
		timeout: timeout,
		log:     logrus.WithField("component", "analyzer"),
	}
}

func buildPrompt(description string) string {
	return fmt.Sprintf(promptTemplate, description)
}

// stripCodeFences removes the markdown fencing models wrap JSON in
// despite being told not to.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// parseResponse decodes the model output strictly: unknown fields and
// out-of-range values are malformed, never a partially filled result.
func parseResponse(raw string) (*types.TriageResult, error) {
	cleaned := stripCodeFences(raw)

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var result types.TriageResult
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &result, nil
}

// Analyze runs one model call for the case and persists the result as a
// single-field write of ai_analysis. The model call carries a bounded
// timeout; a timeout is treated like any other call failure.
func (a *Analyzer) Analyze(ctx context.Context, c *types.Case) (*types.TriageResult, error) {
	if c.ImageURL == "" {
		return nil, ErrNoPhoto
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	raw, err := a.model.Invoke(callCtx, buildPrompt(c.Description), c.ImageURL)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("model call for case %s: %w", c.ID, err)
	}

	result, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if err := a.store.Update(ctx, c.ID, map[string]interface{}{
		"ai_analysis": result,
	}); err != nil {
		return nil, fmt.Errorf("writing triage result for case %s: %w", c.ID, err)
	}

	a.log.WithFields(logrus.Fields{
		"case":       c.ID,
		"risk_score": result.RiskScore,
		"priority":   result.Priority,
	}).Info("triage complete")
	return result, nil
}
