package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// Scenario is one scripted game.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID pins the session id. Defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Variant selects the preset the config overrides apply to.
	Variant string `yaml:"variant,omitempty"`

	// Config holds overrides in config file syntax.
	Config yaml.Node `yaml:"config,omitempty"`

	// Seed seeds every source the rolls do not script.
	Seed uint64 `yaml:"seed,omitempty"`

	// Rolls are the scripted attempt decisions, consumed in order.
	Rolls []float64 `yaml:"rolls,omitempty"`

	// FallbackRoll is returned once Rolls run out. Defaults to 0.5.
	FallbackRoll *float64 `yaml:"fallback_roll,omitempty"`

	// Taken pins the initial taken seats per date.
	Taken map[string][]seatmap.SeatID `yaml:"taken,omitempty"`

	// Demand pins the demand signal before the first step.
	Demand *DemandState `yaml:"demand,omitempty"`

	// StartDemand arms the demand walk and crowd process.
	StartDemand bool `yaml:"start_demand,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// DemandState is a forced demand snapshot.
type DemandState struct {
	Concurrency int  `yaml:"concurrency"`
	Spike       bool `yaml:"spike"`
}

// Step is one player action or a clock advance.
type Step struct {
	Do       string           `yaml:"do"`
	Date     string           `yaml:"date,omitempty"`
	Seats    []seatmap.SeatID `yaml:"seats,omitempty"`
	Duration string           `yaml:"duration,omitempty"`
	Expect   *Expect          `yaml:"expect,omitempty"`
}

// Step types.
const (
	StepSelectDate = "select_date"
	StepToggle     = "toggle"
	StepClear      = "clear"
	StepAttempt    = "attempt"
	StepAdvance    = "advance"
	StepRestart    = "restart"
)

// Expect checks an attempt result. Unset fields are not checked.
type Expect struct {
	Kind     engine.Kind      `yaml:"kind"`
	Reason   engine.Reason    `yaml:"reason,omitempty"`
	Seats    []seatmap.SeatID `yaml:"seats,omitempty"`
	Stolen   []seatmap.SeatID `yaml:"stolen,omitempty"`
	Cooldown *int             `yaml:"cooldown,omitempty"`
	Message  string           `yaml:"message,omitempty"`
}

// Assertion checks the session after the last step.
type Assertion struct {
	Type  string           `yaml:"type"`
	Date  string           `yaml:"date,omitempty"`
	Seats []seatmap.SeatID `yaml:"seats,omitempty"`
	State string           `yaml:"state,omitempty"`
	Kind  engine.Kind      `yaml:"kind,omitempty"`
	Count *int             `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertState       = "state"
	AssertSelected    = "selected"
	AssertConfirmed   = "confirmed"
	AssertTaken       = "taken"
	AssertNotTaken    = "not_taken"
	AssertAttempts    = "attempts"
	AssertCooldown    = "cooldown"
	AssertResultCount = "result_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, r := range s.Rolls {
		if r < 0 || r >= 1 {
			return fmt.Errorf("rolls[%d]: %v outside [0,1)", i, r)
		}
	}
	if s.FallbackRoll != nil && (*s.FallbackRoll < 0 || *s.FallbackRoll >= 1) {
		return fmt.Errorf("fallback_roll: %v outside [0,1)", *s.FallbackRoll)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch step.Do {
	case StepSelectDate:
		if step.Date == "" {
			return fmt.Errorf("steps[%d]: date is required for select_date", index)
		}
	case StepToggle:
		if len(step.Seats) == 0 {
			return fmt.Errorf("steps[%d]: seats are required for toggle", index)
		}
	case StepAdvance:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return fmt.Errorf("steps[%d]: invalid duration %q: %w", index, step.Duration, err)
		}
		if d <= 0 {
			return fmt.Errorf("steps[%d]: duration must be positive", index)
		}
	case StepClear, StepAttempt, StepRestart:
	case "":
		return fmt.Errorf("steps[%d]: do is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown step %q", index, step.Do)
	}
	if step.Expect != nil {
		if step.Do != StepAttempt {
			return fmt.Errorf("steps[%d]: expect is only valid on attempt", index)
		}
		if step.Expect.Kind == "" {
			return fmt.Errorf("steps[%d].expect: kind is required", index)
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertState:
		if _, err := engine.ParseState(a.State); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertSelected, AssertConfirmed:
	case AssertTaken, AssertNotTaken:
		if a.Date == "" {
			return fmt.Errorf("assertions[%d]: date is required for %s", index, a.Type)
		}
		if len(a.Seats) == 0 {
			return fmt.Errorf("assertions[%d]: seats are required for %s", index, a.Type)
		}
	case AssertAttempts, AssertCooldown:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertResultCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for result_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for result_count", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
