// Package claims implements the multi-upload car insurance claim flow:
// collect a claim form and a damage photo, ask for a police report (or
// accept a skip), then run extraction, rules lookup and a decision.
package claims

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Phase is the position of a session in the claim flow.
type Phase string

const (
	PhaseCollecting           Phase = "collecting"
	PhaseAwaitingPoliceReport Phase = "awaiting_police_report"
	PhaseReady                Phase = "ready"
)

// Artifact identifies one of the upload slots.
type Artifact string

const (
	ArtifactClaimForm    Artifact = "claim_form"
	ArtifactDamageImage  Artifact = "damage_image"
	ArtifactPoliceReport Artifact = "police_report"
)

var (
	// ErrInvalidTransition is returned when a transition is not allowed from the current state.
	ErrInvalidTransition = errors.New("claims: invalid state transition")

	// ErrCorruptState is returned when decoded state violates an invariant.
	ErrCorruptState = errors.New("claims: corrupt session state")
)

// State is the per-session claim record. Fields are only changed through
// the transition methods, so a police report can only have been asked for
// once both the claim form and the damage photo are present, and a skip
// only follows that question.
type State struct {
	claimForm     string
	damageImage   string
	policeReport  string
	policeAsked   bool
	policeSkipped bool
	pending       string
}

// ClaimForm returns the stored claim form path.
func (s *State) ClaimForm() string { return s.claimForm }

// DamageImage returns the stored damage photo path.
func (s *State) DamageImage() string { return s.damageImage }

// PoliceReport returns the stored police report path.
func (s *State) PoliceReport() string { return s.policeReport }

// PoliceReportAsked reports whether the police report question was shown.
func (s *State) PoliceReportAsked() bool { return s.policeAsked }

// PoliceReportSkipped reports whether the user declined to provide a police report.
func (s *State) PoliceReportSkipped() bool { return s.policeSkipped }

// Pending returns the stashed ambiguous upload, if any.
func (s *State) Pending() string { return s.pending }

// Empty reports whether nothing has been collected.
func (s *State) Empty() bool {
	return *s == State{}
}

// Phase derives the flow position from the slots.
func (s *State) Phase() Phase {
	switch {
	case s.claimForm == "" || s.damageImage == "":
		return PhaseCollecting
	case s.policeReport != "" || s.policeSkipped:
		return PhaseReady
	default:
		return PhaseAwaitingPoliceReport
	}
}

// Attach stores path in the slot, replacing any earlier upload.
func (s *State) Attach(slot Artifact, path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path for %s", ErrInvalidTransition, slot)
	}
	switch slot {
	case ArtifactClaimForm:
		s.claimForm = path
	case ArtifactDamageImage:
		s.damageImage = path
	case ArtifactPoliceReport:
		s.policeReport = path
	default:
		return fmt.Errorf("%w: unknown slot %q", ErrInvalidTransition, slot)
	}
	return nil
}

// Stash keeps an upload whose role is not yet known.
func (s *State) Stash(path string) {
	s.pending = path
}

// Resolve moves the stashed upload into slot.
func (s *State) Resolve(slot Artifact) error {
	if s.pending == "" {
		return fmt.Errorf("%w: nothing to resolve", ErrInvalidTransition)
	}
	if err := s.Attach(slot, s.pending); err != nil {
		return err
	}
	s.pending = ""
	return nil
}

// AskPolice records that the police report question was shown.
func (s *State) AskPolice() error {
	if s.claimForm == "" || s.damageImage == "" {
		return fmt.Errorf("%w: police report requested before claim form and damage photo", ErrInvalidTransition)
	}
	s.policeAsked = true
	return nil
}

// SkipPolice records that the user has no police report.
func (s *State) SkipPolice() error {
	if !s.policeAsked {
		return fmt.Errorf("%w: skip before the police report was requested", ErrInvalidTransition)
	}
	if s.policeReport != "" {
		return fmt.Errorf("%w: police report already provided", ErrInvalidTransition)
	}
	s.policeSkipped = true
	return nil
}

// Reset clears the record for the next claim.
func (s *State) Reset() {
	*s = State{}
}

// Validate checks the invariants of a decoded state.
func (s *State) Validate() error {
	if s.policeAsked && (s.claimForm == "" || s.damageImage == "") {
		return fmt.Errorf("%w: police report asked without claim form and damage photo", ErrCorruptState)
	}
	if s.policeSkipped && !s.policeAsked {
		return fmt.Errorf("%w: police report skipped without being asked", ErrCorruptState)
	}
	return nil
}

type stateJSON struct {
	ClaimForm           string `json:"claim_form,omitempty"`
	DamageImage         string `json:"damage_image,omitempty"`
	PoliceReport        string `json:"police_report,omitempty"`
	PoliceReportAsked   bool   `json:"police_report_asked,omitempty"`
	PoliceReportSkipped bool   `json:"police_report_skipped,omitempty"`
	PendingUpload       string `json:"last_ambiguous_upload,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		ClaimForm:           s.claimForm,
		DamageImage:         s.damageImage,
		PoliceReport:        s.policeReport,
		PoliceReportAsked:   s.policeAsked,
		PoliceReportSkipped: s.policeSkipped,
		PendingUpload:       s.pending,
	})
}

func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := State{
		claimForm:     raw.ClaimForm,
		damageImage:   raw.DamageImage,
		policeReport:  raw.PoliceReport,
		policeAsked:   raw.PoliceReportAsked,
		policeSkipped: raw.PoliceReportSkipped,
		pending:       raw.PendingUpload,
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}
