package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/livetemplate/speedlaunch/internal/state"
	"go.uber.org/zap"
)

// maxRequestBodySize limits the size of incoming action bodies (64KB)
const maxRequestBodySize = 64 << 10

// Action names accepted on /api/actions and the websocket.
const (
	ActionSetMode             = "setMode"
	ActionToggleCheckbox      = "toggleCheckbox"
	ActionToggleSection       = "toggleSection"
	ActionCompleteStep        = "completeStep"
	ActionSetChallengeStep    = "setChallengeStep"
	ActionSetSelectedWorkflow = "setSelectedWorkflow"
	ActionCopyPrompt          = "copyPrompt"
	ActionReset               = "reset"
)

// Errors for requests that name something the guide does not have.
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownID     = errors.New("unknown id")
)

// ActionRequest is the envelope a client sends to change state.
type ActionRequest struct {
	Action string     `json:"action"`
	Data   ActionData `json:"data"`
}

// ActionData carries the arguments of every action; each action reads only
// the fields it needs.
type ActionData struct {
	ID       string `json:"id,omitempty"`
	Step     int    `json:"step,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Workflow string `json:"workflow,omitempty"`
}

// ActionResponse reports the state after an action.
type ActionResponse struct {
	State  state.Snapshot `json:"state"`
	HTML   string         `json:"html,omitempty"`
	Copied *bool          `json:"copied,omitempty"`
}

// Dispatch applies req to the store. copied is set only for copyPrompt.
// Every returned error is a contract violation that left state unchanged.
func (s *Server) Dispatch(req ActionRequest) (copied *bool, err error) {
	g := s.Guide()
	d := req.Data

	switch req.Action {
	case ActionSetMode:
		m, err := state.ParseMode(d.Mode)
		if err != nil {
			return nil, err
		}
		return nil, s.store.SetMode(m)

	case ActionToggleCheckbox:
		if _, ok := g.Checkbox(d.ID); !ok {
			return nil, fmt.Errorf("%w: checkbox %q", ErrUnknownID, d.ID)
		}
		_, err := s.store.ToggleCheckbox(d.ID)
		return nil, err

	case ActionToggleSection:
		if !g.HasSection(d.ID) {
			return nil, fmt.Errorf("%w: section %q", ErrUnknownID, d.ID)
		}
		_, err := s.store.ToggleSection(d.ID, g.SectionDefault(d.ID))
		return nil, err

	case ActionCompleteStep:
		return nil, s.store.CompleteStep(d.Step)

	case ActionSetChallengeStep:
		return nil, s.store.SetChallengeStep(d.Step)

	case ActionSetSelectedWorkflow:
		w, err := state.ParseWorkflow(d.Workflow)
		if err != nil {
			return nil, err
		}
		return nil, s.store.SetSelectedWorkflow(w)

	case ActionCopyPrompt:
		p, ok := g.Prompt(d.ID)
		if !ok {
			return nil, fmt.Errorf("%w: prompt %q", ErrUnknownID, d.ID)
		}
		ok = s.store.CopyToClipboard(p.Text, p.ID)
		return &ok, nil

	case ActionReset:
		s.store.Reset()
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
}

// response builds the reply for the current state, including rendered HTML.
func (s *Server) response(copied *bool) (ActionResponse, error) {
	snap := s.store.Snapshot()
	html, err := s.renderer.App(s.Guide(), snap)
	if err != nil {
		return ActionResponse{}, err
	}
	return ActionResponse{State: snap, HTML: string(html), Copied: copied}, nil
}

// handleActions serves POST /api/actions.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	copied, err := s.Dispatch(req)
	if err != nil {
		s.logger.Debug("rejected action", zap.String("action", req.Action), zap.Error(err))
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.response(copied)
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "render failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleState serves GET /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp, err := s.response(nil)
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "render failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ProgressResponse summarizes checklist and step completion.
type ProgressResponse struct {
	ChallengeStep  int            `json:"challengeStep"`
	CompletedSteps []int          `json:"completedSteps"`
	Steps          []StepProgress `json:"steps"`
}

// StepProgress is the JSON form of one step's checklist count.
type StepProgress struct {
	Step     int    `json:"step"`
	Title    string `json:"title"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Complete bool   `json:"complete"`
}

// handleProgress serves GET /api/progress.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap := s.store.Snapshot()
	resp := ProgressResponse{
		ChallengeStep:  snap.ChallengeStep,
		CompletedSteps: []int{},
	}
	for n := state.FirstStep; n <= state.LastStep; n++ {
		if snap.StepCompleted(n) {
			resp.CompletedSteps = append(resp.CompletedSteps, n)
		}
	}
	for _, p := range s.Guide().Progress(snap.CheckboxStates) {
		resp.Steps = append(resp.Steps, StepProgress{
			Step:     p.Step,
			Title:    p.Title,
			Done:     p.Done,
			Total:    p.Total,
			Complete: p.Complete(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
