// Package wizard tracks the current step of the guided application.
package wizard

import (
	"sync"

	apperrors "fishery-permit/internal/common/errors"
	"fishery-permit/internal/permit/form"
)

type Step struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func DefaultSteps() []Step {
	return []Step{
		{ID: 1, Title: "신청인 정보", Description: "기본 정보를 입력해주세요"},
		{ID: 2, Title: "어선 정보", Description: "어선 관련 정보를 입력해주세요"},
		{ID: 3, Title: "어업 정보", Description: "어업 종류와 구역을 선택해주세요"},
		{ID: 4, Title: "서류 업로드", Description: "필요 서류를 업로드해주세요"},
		{ID: 5, Title: "최종 검토", Description: "입력 내용을 확인하고 제출해주세요"},
	}
}

// Guard decides whether the wizard may leave the given step going forward.
type Guard interface {
	CanAdvance(step int) error
}

type alwaysAllow struct{}

func (alwaysAllow) CanAdvance(int) error { return nil }

// AlwaysAllow never blocks navigation.
var AlwaysAllow Guard = alwaysAllow{}

// FieldLookup exposes the current value and validity of form fields.
type FieldLookup interface {
	Value(field form.Field) string
	Invalid(field form.Field) bool
}

// RequiredFields is the per-step set checked by RequiredFieldsGuard.
var RequiredFields = map[int][]form.Field{
	1: {form.ApplicantName, form.ApplicantPhone},
	2: {form.VesselName, form.VesselTonnage},
	3: {form.FisheryType, form.FishingArea},
}

type requiredFieldsGuard struct {
	lookup   FieldLookup
	required map[int][]form.Field
}

// RequiredFieldsGuard blocks advancing while a required field of the current
// step is empty or has an invalid validation result.
func RequiredFieldsGuard(lookup FieldLookup) Guard {
	return &requiredFieldsGuard{lookup: lookup, required: RequiredFields}
}

func (g *requiredFieldsGuard) CanAdvance(step int) error {
	var missing []string
	for _, f := range g.required[step] {
		if g.lookup.Value(f) == "" || g.lookup.Invalid(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return apperrors.NewStepIncompleteError(step, missing)
	}
	return nil
}

type Controller struct {
	mu      sync.RWMutex
	steps   []Step
	current int
	guard   Guard
}

// NewController starts at step 1. A nil guard means AlwaysAllow. With no steps
// the default five are used.
func NewController(steps []Step, guard Guard) *Controller {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	if guard == nil {
		guard = AlwaysAllow
	}
	return &Controller{
		steps:   append([]Step(nil), steps...),
		current: 1,
		guard:   guard,
	}
}

func (c *Controller) Current() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Controller) CurrentStep() Step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.steps[c.current-1]
}

func (c *Controller) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

func (c *Controller) Len() int {
	return len(c.steps)
}

// Advance moves forward one step. It is a no-op on the last step. A guard
// refusal leaves the step unchanged and is returned.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current >= len(c.steps) {
		return nil
	}
	if err := c.guard.CanAdvance(c.current); err != nil {
		return err
	}
	c.current++
	return nil
}

// Retreat moves back one step. It is a no-op on the first step and never guarded.
func (c *Controller) Retreat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current > 1 {
		c.current--
	}
}

// IsFinal reports whether the wizard is on the review step.
func (c *Controller) IsFinal() bool {
	return c.Current() == c.Len()
}
