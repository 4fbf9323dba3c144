package form

import (
	"sync"

	apperrors "fishery-permit/internal/common/errors"
)

type Field string

const (
	ApplicantName  Field = "applicantName"
	ApplicantPhone Field = "applicantPhone"
	ApplicantEmail Field = "applicantEmail"
	BusinessType   Field = "businessType"
	VesselName     Field = "vesselName"
	VesselTonnage  Field = "vesselTonnage"
	Experience     Field = "experience"
	FisheryType    Field = "fisheryType"
	FishingArea    Field = "fishingArea"
)

// Fields lists every form field in wizard order.
func Fields() []Field {
	return []Field{
		ApplicantName, ApplicantPhone, ApplicantEmail, BusinessType,
		VesselName, VesselTonnage, Experience, FisheryType, FishingArea,
	}
}

func ParseField(name string) (Field, error) {
	for _, f := range Fields() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", apperrors.NewUnknownFieldError(name)
}

// State holds the in-progress values. Last write wins; no history is kept.
type State struct {
	mu     sync.RWMutex
	values map[Field]string
}

func NewState() *State {
	return &State{values: make(map[Field]string, len(Fields()))}
}

func (s *State) Set(field Field, value string) {
	s.mu.Lock()
	s.values[field] = value
	s.mu.Unlock()
}

func (s *State) Get(field Field) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[field]
}

// Snapshot copies every field, unset ones as "".
func (s *State) Snapshot() map[Field]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Field]string, len(Fields()))
	for _, f := range Fields() {
		out[f] = s.values[f]
	}
	return out
}
