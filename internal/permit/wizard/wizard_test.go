package wizard

import (
	"math/rand"
	"testing"

	apperrors "fishery-permit/internal/common/errors"
	"fishery-permit/internal/permit/form"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	values  map[form.Field]string
	invalid map[form.Field]bool
}

func (f *fakeLookup) Value(field form.Field) string { return f.values[field] }
func (f *fakeLookup) Invalid(field form.Field) bool { return f.invalid[field] }

func TestController_StartsAtFirstStep(t *testing.T) {
	c := NewController(nil, nil)
	assert.Equal(t, 1, c.Current())
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, "신청인 정보", c.CurrentStep().Title)
}

func TestController_AdvanceAndRetreat(t *testing.T) {
	c := NewController(DefaultSteps(), AlwaysAllow)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Advance())
	}
	assert.Equal(t, 5, c.Current())
	assert.True(t, c.IsFinal())

	for i := 0; i < 10; i++ {
		c.Retreat()
	}
	assert.Equal(t, 1, c.Current())
}

func TestController_StaysInRange(t *testing.T) {
	steps := []Step{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}}
	c := NewController(steps, nil)
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		if r.Intn(2) == 0 {
			_ = c.Advance()
		} else {
			c.Retreat()
		}
		assert.GreaterOrEqual(t, c.Current(), 1)
		assert.LessOrEqual(t, c.Current(), 3)
	}
}

func TestRequiredFieldsGuard(t *testing.T) {
	lookup := &fakeLookup{values: map[form.Field]string{}, invalid: map[form.Field]bool{}}
	c := NewController(DefaultSteps(), RequiredFieldsGuard(lookup))

	err := c.Advance()
	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeStepIncomplete, stdErr.Code)
	assert.Equal(t, []string{"applicantName", "applicantPhone"}, stdErr.Metadata["missingFields"])
	assert.Equal(t, 1, c.Current())

	lookup.values[form.ApplicantName] = "김어부"
	lookup.values[form.ApplicantPhone] = "123"
	lookup.invalid[form.ApplicantPhone] = true
	assert.Error(t, c.Advance())

	lookup.values[form.ApplicantPhone] = "010-1234-5678"
	lookup.invalid[form.ApplicantPhone] = false
	require.NoError(t, c.Advance())
	assert.Equal(t, 2, c.Current())

	c.Retreat()
	assert.Equal(t, 1, c.Current())
}

func TestRequiredFieldsGuard_LaterStepsUnguarded(t *testing.T) {
	lookup := &fakeLookup{
		values: map[form.Field]string{
			form.ApplicantName: "a", form.ApplicantPhone: "p",
			form.VesselName: "v", form.VesselTonnage: "5",
			form.FisheryType: "coastal", form.FishingArea: "동해",
		},
		invalid: map[form.Field]bool{},
	}
	c := NewController(DefaultSteps(), RequiredFieldsGuard(lookup))
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Advance())
	}
	assert.Equal(t, 5, c.Current())
}

func TestController_StepsCopied(t *testing.T) {
	c := NewController(nil, nil)
	steps := c.Steps()
	steps[0].Title = "changed"
	assert.Equal(t, "신청인 정보", c.Steps()[0].Title)
}
