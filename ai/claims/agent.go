package claims

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/session"
)

const stateKeyPrefix = "claims:"

// Runner processes a complete claim.
type Runner interface {
	Run(ctx context.Context, in Input) (string, error)
}

// Agent is the cicp agent: it walks a session through the claim flow and
// holds the session while a claim is in progress.
type Agent struct {
	states   session.StateStore
	pipeline Runner
}

var _ agents.Agent = (*Agent)(nil)

// NewAgent creates the claims agent.
func NewAgent(states session.StateStore, pipeline Runner) *Agent {
	return &Agent{states: states, pipeline: pipeline}
}

func (a *Agent) Name() string { return agents.CICP }

func (a *Agent) Description() string {
	return "Car insurance claim processing: collects a claim form, a damage photo and a police report " +
		"over several turns, then extracts details, checks insurance rules and approves or rejects the claim."
}

// StateKey is the state store key of a session's claim.
func StateKey(sessionID string) string {
	return stateKeyPrefix + sessionID
}

// LoadState returns the stored claim of a session; a missing record is empty.
func (a *Agent) LoadState(ctx context.Context, sessionID string) (State, error) {
	var st State
	err := a.states.Load(ctx, StateKey(sessionID), &st)
	switch {
	case err == nil:
		return st, nil
	case errors.Is(err, session.ErrNotFound):
		return State{}, nil
	case errors.Is(err, ErrCorruptState):
		slog.Warn("claims: discarding corrupt state", "session_id", sessionID, "error", err)
		return State{}, nil
	default:
		return State{}, fmt.Errorf("load claim state: %w", err)
	}
}

func (a *Agent) saveState(ctx context.Context, sessionID string, st State) error {
	if st.Empty() {
		if err := a.states.Delete(ctx, StateKey(sessionID)); err != nil {
			return fmt.Errorf("clear claim state: %w", err)
		}
		return nil
	}
	if err := a.states.Save(ctx, StateKey(sessionID), st); err != nil {
		return fmt.Errorf("save claim state: %w", err)
	}
	return nil
}

// Invoke advances the claim flow by one turn. Callers serialise turns of a session.
func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	st, err := a.LoadState(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	content, err := a.step(ctx, &st, req)
	if err != nil {
		return nil, err
	}
	if err := a.saveState(ctx, req.SessionID, st); err != nil {
		return nil, err
	}
	return &agents.Response{Content: content, HoldSession: !st.Empty()}, nil
}

// step applies one turn to st and returns the reply.
func (a *Agent) step(ctx context.Context, st *State, req *agents.Request) (string, error) {
	logger := slog.With("session_id", req.SessionID)

	skipped := false
	if st.PoliceReportAsked() && !st.PoliceReportSkipped() && !req.HasFile() && IsSkip(req.Query) {
		if err := st.SkipPolice(); err == nil {
			skipped = true
			logger.Info("claims: police report skipped")
		}
	}

	if req.HasFile() {
		slot, kind := ClassifyUpload(req.FilePath, req.Query)
		switch kind {
		case UploadSlot:
			if err := st.Attach(slot, req.FilePath); err != nil {
				return "", err
			}
			logger.Info("claims: upload stored", "slot", slot, "file", req.FilePath)
		case UploadAmbiguous:
			st.Stash(req.FilePath)
			logger.Info("claims: ambiguous upload stashed", "file", req.FilePath)
			return ambiguousUploadMessage(req.FilePath), nil
		default:
			logger.Info("claims: ignoring unsupported upload", "file", req.FilePath)
		}
	} else if st.Pending() != "" && !skipped {
		if slot, ok := MatchHint(req.Query); ok {
			if err := st.Resolve(slot); err != nil {
				return "", err
			}
			logger.Info("claims: ambiguous upload resolved", "slot", slot)
		}
	}

	switch {
	case st.ClaimForm() == "" && st.DamageImage() == "":
		return introMessage, nil
	case st.DamageImage() == "":
		return claimFormReceivedMessage(st.ClaimForm()), nil
	case st.ClaimForm() == "":
		return damagePhotoReceivedMessage(st.DamageImage()), nil
	}

	if st.Phase() == PhaseAwaitingPoliceReport {
		if err := st.AskPolice(); err != nil {
			return "", err
		}
		return policeReportRequestMessage(st.ClaimForm(), st.DamageImage()), nil
	}

	policeStatus := "provided"
	if st.PoliceReport() == "" {
		policeStatus = "skipped"
	}
	logger.Info("claims: running pipeline",
		"claim_form", st.ClaimForm(),
		"damage_image", st.DamageImage(),
		"police_report", policeStatus)

	decision, err := a.pipeline.Run(ctx, Input{
		ClaimForm:    st.ClaimForm(),
		DamageImage:  st.DamageImage(),
		PoliceReport: st.PoliceReport(),
		Query:        req.Query,
	})
	if err != nil {
		// The collected uploads stay so the user can retry.
		logger.Error("claims: pipeline failed", "error", err)
		return processingErrorMessage(err), nil
	}

	st.Reset()
	return decision, nil
}
