package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sensei/dashboard/internal/sensei"
	"github.com/sensei/dashboard/internal/store"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeAPIError forwards a backend validation body with its original status
// so API consumers see the same conflict details the backend produced.
func (s *Server) writeAPIError(w http.ResponseWriter, err error, fallback string) {
	var apiErr *sensei.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == sensei.KindHTTP && apiErr.Body != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.Status)
		w.Write([]byte(apiErr.Body))
		return
	}
	http.Error(w, fallback, http.StatusInternalServerError)
}

func (s *Server) handleResultsAPI(w http.ResponseWriter, r *http.Request) {
	projectID := s.currentProjectID()
	if q := r.URL.Query().Get("project"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil {
			projectID = parsed
		}
	}

	results, err := s.results.Results(projectID, 100)
	if err != nil {
		s.log.Error().Err(err).Msg("error getting results")
		http.Error(w, "Failed to load results", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []store.CheckResult{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleFlakyCasesAPI(w http.ResponseWriter, r *http.Request) {
	flaky, err := s.results.FlakyCases(s.currentProjectID(), 0.1)
	if err != nil {
		s.log.Error().Err(err).Msg("error getting flaky cases")
		http.Error(w, "Failed to load flaky cases", http.StatusInternalServerError)
		return
	}
	if flaky == nil {
		flaky = []store.FlakyCase{}
	}
	s.writeJSON(w, http.StatusOK, flaky)
}

func (s *Server) handleCreateProjectAPI(w http.ResponseWriter, r *http.Request) {
	var req sensei.Project
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	project, err := s.api.CreateProject(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Str("name", req.Name).Msg("error creating project")
		s.writeAPIError(w, err, "Failed to create project")
		return
	}

	s.log.Info().Int("project", project.ID).Str("name", project.Name).Msg("project created")
	s.writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleDeleteTestCaseAPI(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid test case id", http.StatusBadRequest)
		return
	}

	if err := s.api.DeleteTestCase(r.Context(), id); err != nil {
		s.log.Error().Err(err).Int("test_case", id).Msg("error deleting test case")
		s.writeAPIError(w, err, "Failed to delete test case")
		return
	}

	s.log.Info().Int("test_case", id).Msg("test case deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAPIKeysAPI(w http.ResponseWriter, r *http.Request) {
	keys, err := s.api.GetAPIKeys(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("error listing API keys")
		http.Error(w, "Failed to list API keys", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleCreateAPIKeyAPI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	key, err := s.api.CreateAPIKey(r.Context(), req.Name)
	if err != nil {
		s.log.Error().Err(err).Msg("error creating API key")
		s.writeAPIError(w, err, "Failed to create API key")
		return
	}
	s.writeJSON(w, http.StatusCreated, key)
}

func (s *Server) handleDeleteAPIKeyAPI(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid API key id", http.StatusBadRequest)
		return
	}

	if err := s.api.DeleteAPIKey(r.Context(), id); err != nil {
		s.log.Error().Err(err).Int("api_key", id).Msg("error deleting API key")
		s.writeAPIError(w, err, "Failed to delete API key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConnectorTechnologiesAPI(w http.ResponseWriter, r *http.Request) {
	techs, err := s.api.GetConnectorTechnologies(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("error listing connector technologies")
		http.Error(w, "Failed to list connector technologies", http.StatusInternalServerError)
		return
	}
	if techs == nil {
		techs = []sensei.Technology{}
	}
	s.writeJSON(w, http.StatusOK, techs)
}

func (s *Server) handleValidateConnectorAPI(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid connector id", http.StatusBadRequest)
		return
	}

	result, err := s.api.ValidateConnector(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Int("connector", id).Msg("error validating connector")
		s.writeAPIError(w, err, "Failed to validate connector")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleUploadProfileAPI accepts a multipart form with profile files and
// forwards it to the backend upload endpoint.
func (s *Server) handleUploadProfileAPI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	projectID, err := strconv.Atoi(r.FormValue("project"))
	if err != nil {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	ignoreValidation := r.FormValue("ignore_validation_errors") == "true"

	files := make(map[string][]byte)
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		files[header.Filename] = content
	}

	result, err := s.api.UploadProfile(r.Context(), sensei.UploadRequest{
		ProjectID:              projectID,
		Files:                  files,
		IgnoreValidationErrors: ignoreValidation,
	})
	if err != nil {
		s.log.Error().Err(err).Int("project", projectID).Msg("error uploading profiles")
		s.writeAPIError(w, err, "Failed to upload profiles")
		return
	}

	s.log.Info().Int("project", projectID).Int("files", len(files)).Msg("profiles uploaded")
	s.writeJSON(w, http.StatusCreated, result)
}
