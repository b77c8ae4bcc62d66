package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jingkaihe/skillspec/pkg/i18n"
	"github.com/jingkaihe/skillspec/pkg/logger"
	"github.com/jingkaihe/skillspec/pkg/patterns"
	"github.com/jingkaihe/skillspec/pkg/report"
	"github.com/jingkaihe/skillspec/pkg/skill"
	"github.com/jingkaihe/skillspec/pkg/tools"
	"github.com/jingkaihe/skillspec/pkg/validator"
	"github.com/jingkaihe/skillspec/pkg/version"
)

// ValidateRequest is the body of POST /api/validate. Exactly one of
// Document (inline YAML), Skill (a workspace skill name) or Path (a
// server-side file) selects what to validate.
type ValidateRequest struct {
	Document       string   `json:"document,omitempty"`
	Skill          string   `json:"skill,omitempty"`
	Path           string   `json:"path,omitempty"`
	Mode           string   `json:"mode,omitempty"`
	Policies       []string `json:"policies,omitempty"`
	PatternsLocale string   `json:"patterns_locale,omitempty"`
	// Record writes the run into the validation history.
	Record bool `json:"record,omitempty"`
}

// handleServiceInfo handles GET /
func (s *Server) handleServiceInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, map[string]any{
		"service":   "skillspec",
		"version":   version.Get(),
		"workspace": s.ws.Root,
		"endpoints": []string{
			"POST /api/validate",
			"GET /api/skills",
			"GET /api/patterns",
			"GET /api/tools",
			"GET /api/history",
			"GET /api/history/{id}",
		},
	})
}

// handleValidate handles POST /api/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	mode, err := validator.ParseMode(req.Mode)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	opts := []validator.EngineOption{validator.WithMode(mode)}
	if req.PatternsLocale != "" {
		scanner, err := patterns.NewScanner(
			patterns.WithLocales(s.ws.PatternsDir(), req.PatternsLocale))
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, "failed to load patterns", err)
			return
		}
		opts = append(opts, validator.WithScanner(scanner))
	}
	if len(req.Policies) > 0 {
		opts = append(opts, validator.WithPolicyFiles(req.Policies...))
	}

	engine, err := validator.NewEngine(opts...)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "failed to configure validation", err)
		return
	}

	var rep *validator.Report
	switch {
	case req.Document != "":
		doc, parseErr := skill.Parse([]byte(req.Document))
		if parseErr != nil {
			rep = engine.MalformedReport("inline", parseErr)
		} else {
			doc.SetSource("inline")
			rep = engine.Validate(ctx, doc)
		}
	case req.Skill != "":
		path, findErr := s.ws.FindSkill(req.Skill)
		if findErr != nil {
			s.writeErrorResponse(w, http.StatusNotFound,
				i18n.T(i18n.DefaultLocale, "cli.skill_not_found", i18n.Args{"name": req.Skill}), nil)
			return
		}
		rep = engine.ValidateFile(ctx, path)
	case req.Path != "":
		rep = engine.ValidateFile(ctx, req.Path)
	default:
		s.writeErrorResponse(w, http.StatusBadRequest, "one of document, skill or path is required", nil)
		return
	}

	if req.Record && s.store != nil {
		if _, err := s.store.Record(ctx, rep); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to record validation run")
		}
	}

	s.writeJSONResponse(w, report.NewPayload(rep))
}

// handleListSkills handles GET /api/skills
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	infos, err := s.ws.List()
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list skills", err)
		return
	}

	type skillInfo struct {
		Name         string `json:"name"`
		Status       string `json:"status"`
		SpecPath     string `json:"spec_path"`
		HasSpec      bool   `json:"has_spec"`
		HasCompanion bool   `json:"has_companion"`
	}
	out := make([]skillInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, skillInfo{
			Name:         info.Name,
			Status:       info.Status,
			SpecPath:     info.SpecPath,
			HasSpec:      info.HasSpec,
			HasCompanion: info.HasCompanion,
		})
	}
	s.writeJSONResponse(w, map[string]any{"skills": out})
}

// handleGetPatterns handles GET /api/patterns?locale=union
func (s *Server) handleGetPatterns(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = i18n.PatternsUnion
	}

	set, err := patterns.Load(s.ws.PatternsDir(), locale)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "failed to load patterns", err)
		return
	}
	s.writeJSONResponse(w, set)
}

// handleListTools handles GET /api/tools
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	registry := tools.NewRegistry()

	type toolInfo struct {
		tools.Tool
		Signature string `json:"signature"`
	}
	all := registry.All()
	out := make([]toolInfo, 0, len(all))
	for _, tool := range all {
		out = append(out, toolInfo{Tool: tool, Signature: tool.Signature()})
	}
	s.writeJSONResponse(w, map[string]any{"tools": out})
}

// handleListHistory handles GET /api/history?skill=name&limit=20
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "validation history is disabled", nil)
		return
	}

	query := r.URL.Query()
	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	entries, err := s.store.List(r.Context(), query.Get("skill"), limit)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list history", err)
		return
	}
	s.writeJSONResponse(w, map[string]any{"entries": entries})
}

// handleGetHistoryEntry handles GET /api/history/{id}
func (s *Server) handleGetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "validation history is disabled", nil)
		return
	}

	runID := mux.Vars(r)["id"]
	entry, err := s.store.Get(r.Context(), runID)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load history entry", err)
		return
	}
	if entry == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "run not found", nil)
		return
	}
	s.writeJSONResponse(w, entry)
}
