package session

import (
	"fmt"
	"strings"
)

// Flow namespaces step names so the user questionnaire and the admin
// listing wizard can never be confused for one another.
type Flow string

const (
	FlowIdle     Flow = ""
	FlowBrowse   Flow = "browse"
	FlowApplying Flow = "applying"
	FlowAdminAdd Flow = "admin_add"
)

// Step is the tagged "current question" marker of a conversation.
// The zero value is idle.
type Step struct {
	Flow Flow
	Name string
}

// Browse steps select the listing filters.
var (
	StepAwaitCity     = Step{Flow: FlowBrowse, Name: "await_city"}
	StepAwaitDealType = Step{Flow: FlowBrowse, Name: "await_deal_type"}
	StepAwaitRooms    = Step{Flow: FlowBrowse, Name: "await_rooms"}
	StepReviewing     = Step{Flow: FlowBrowse, Name: "reviewing"}
)

// Applying steps collect the rental application.
var (
	StepPeople      = Step{Flow: FlowApplying, Name: "people"}
	StepNationality = Step{Flow: FlowApplying, Name: "nationality"}
	StepPets        = Step{Flow: FlowApplying, Name: "pets"}
	StepIncome      = Step{Flow: FlowApplying, Name: "income"}
	StepPeriod      = Step{Flow: FlowApplying, Name: "period"}
	StepViewing     = Step{Flow: FlowApplying, Name: "viewing"}
	StepContact     = Step{Flow: FlowApplying, Name: "contact"}
)

// Admin steps create a listing.
var (
	StepAdminCity        = Step{Flow: FlowAdminAdd, Name: "city"}
	StepAdminDealType    = Step{Flow: FlowAdminAdd, Name: "deal_type"}
	StepAdminRooms       = Step{Flow: FlowAdminAdd, Name: "rooms"}
	StepAdminDescription = Step{Flow: FlowAdminAdd, Name: "description"}
	StepAdminLink        = Step{Flow: FlowAdminAdd, Name: "link"}
)

// Idle is the step of a conversation with no active flow.
var Idle = Step{}

var knownSteps = map[Step]struct{}{
	StepAwaitCity: {}, StepAwaitDealType: {}, StepAwaitRooms: {}, StepReviewing: {},
	StepPeople: {}, StepNationality: {}, StepPets: {}, StepIncome: {},
	StepPeriod: {}, StepViewing: {}, StepContact: {},
	StepAdminCity: {}, StepAdminDealType: {}, StepAdminRooms: {},
	StepAdminDescription: {}, StepAdminLink: {},
}

// IsIdle reports whether no flow is active.
func (s Step) IsIdle() bool {
	return s == Idle
}

// Valid reports whether s belongs to the closed step set.
func (s Step) Valid() bool {
	if s.IsIdle() {
		return true
	}
	_, ok := knownSteps[s]
	return ok
}

// In reports whether the step belongs to flow f.
func (s Step) In(f Flow) bool {
	return s.Flow == f
}

func (s Step) String() string {
	if s.IsIdle() {
		return "idle"
	}
	return string(s.Flow) + ":" + s.Name
}

// ParseStep parses the "flow:name" form produced by String.
func ParseStep(raw string) (Step, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "idle" {
		return Idle, nil
	}
	flow, name, ok := strings.Cut(raw, ":")
	if !ok {
		return Idle, fmt.Errorf("session: malformed step %q", raw)
	}
	step := Step{Flow: Flow(flow), Name: name}
	if !step.Valid() {
		return Idle, fmt.Errorf("session: unknown step %q", raw)
	}
	return step, nil
}

// MarshalText encodes the step in its string form.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step produced by MarshalText.
func (s *Step) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}
