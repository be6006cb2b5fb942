package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sensei/dashboard/internal/artifacts"
	"github.com/sensei/dashboard/internal/charts"
	"github.com/sensei/dashboard/internal/poller"
	"github.com/sensei/dashboard/internal/sensei"
	"github.com/sensei/dashboard/internal/session"
	"github.com/sensei/dashboard/internal/store"
)

type Server struct {
	api       sensei.API
	results   store.Store
	sessions  session.Store
	pollers   *poller.Manager
	charts    *charts.Generator
	graphs    *artifacts.Manager
	templates map[string]*template.Template
	rootDir   string
	log       zerolog.Logger
}

func NewServer(api sensei.API, results store.Store, sessions session.Store, pollers *poller.Manager, graphs *artifacts.Manager, rootDir string, log zerolog.Logger) *Server {
	// Each page template is parsed together with the shared layout.
	templatesDir := filepath.Join(rootDir, "web/templates")
	templates := make(map[string]*template.Template)

	pages := []string{
		"dashboard.html",
		"project_list.html",
		"testcase_list.html",
		"testcase_detail.html",
		"connector_list.html",
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	for _, page := range pages {
		pagePath := filepath.Join(templatesDir, page)
		templates[page] = template.Must(template.ParseFiles(layoutPath, pagePath))
	}

	return &Server{
		api:       api,
		results:   results,
		sessions:  sessions,
		pollers:   pollers,
		charts:    charts.NewGenerator(),
		graphs:    graphs,
		templates: templates,
		rootDir:   rootDir,
		log:       log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(filepath.Join(s.rootDir, "web/static")))))

	// Pages
	r.Get("/", s.handleDashboard)
	r.Get("/projects", s.handleProjectList)
	r.Post("/projects/{id}/select", s.handleSelectProject)
	r.Get("/testcases", s.handleTestCaseList)
	r.Get("/testcases/{id}", s.handleTestCaseDetail)
	r.Post("/testcases/{id}/run", s.handleRunTestCase)
	r.Post("/testcases/{id}/stop", s.handleStopTestCase)
	r.Get("/testcases/{id}/graph", s.handleTestCaseGraph)
	r.Get("/connectors", s.handleConnectorList)

	// JSON API
	r.Get("/api/v1/results", s.handleResultsAPI)
	r.Get("/api/v1/flaky-cases", s.handleFlakyCasesAPI)
	r.Post("/api/v1/projects", s.handleCreateProjectAPI)
	r.Delete("/api/v1/testcases/{id}", s.handleDeleteTestCaseAPI)
	r.Get("/api/v1/api-keys", s.handleListAPIKeysAPI)
	r.Post("/api/v1/api-keys", s.handleCreateAPIKeyAPI)
	r.Delete("/api/v1/api-keys/{id}", s.handleDeleteAPIKeyAPI)
	r.Get("/api/v1/connector-technologies", s.handleConnectorTechnologiesAPI)
	r.Post("/api/v1/connectors/{id}/validate", s.handleValidateConnectorAPI)
	r.Post("/api/v1/profiles/upload", s.handleUploadProfileAPI)

	return r
}

// currentProjectID parses the selected project out of the session store.
// Zero means no selection.
func (s *Server) currentProjectID() int {
	serialized, ok := s.sessions.CurrentProject()
	if !ok {
		return 0
	}
	var proj struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal([]byte(serialized), &proj); err != nil {
		s.log.Warn().Err(err).Msg("invalid project selection in session")
		return 0
	}
	return proj.ID
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	projectID := s.currentProjectID()

	data := map[string]interface{}{
		"Title":            "Sensei Dashboard",
		"ProjectID":        projectID,
		"PassRate":         0,
		"AvgLatency":       "0ms",
		"TotalRuns":        0,
		"FlakyCases":       []store.FlakyCase{},
		"RecentFailures":   []store.CheckResult{},
		"PassRateChart":    template.HTML(""),
		"LatencyChart":     template.HTML(""),
		"LatencySparkline": template.HTML(""),
		"Error":            nil,
	}

	if projectID == 0 {
		s.render(w, "dashboard.html", data)
		return
	}

	// Seed/refresh the poller from the live case list; read errors degrade to
	// an empty dashboard rather than a 500.
	cases, err := s.api.GetTestCases(r.Context(), sensei.ListOptions{Project: projectID})
	if err != nil {
		s.log.Error().Err(err).Msg("error getting test cases")
		data["Error"] = fmt.Sprintf("Could not load test cases: %v", err)
	} else {
		s.pollers.Ensure(projectID, cases)
	}

	trends, err := s.results.Trends(projectID, 7)
	if err != nil {
		s.log.Error().Err(err).Msg("error getting trends")
	} else if trends != nil {
		data["PassRate"] = int(trends.CurrentPassRate * 100)
		data["AvgLatency"] = fmt.Sprintf("%.0fms", trends.AvgLatencyMs)
		data["TotalRuns"] = trends.TotalRuns
	}

	if flaky, err := s.results.FlakyCases(projectID, 0.1); err != nil {
		s.log.Error().Err(err).Msg("error getting flaky cases")
	} else if flaky != nil {
		data["FlakyCases"] = flaky
	}

	if failures, err := s.results.RecentFailures(projectID, 10); err != nil {
		s.log.Error().Err(err).Msg("error getting recent failures")
	} else if failures != nil {
		data["RecentFailures"] = failures
	}

	if points, err := s.results.PassRateTrend(projectID, 7); err != nil {
		s.log.Error().Err(err).Msg("error getting pass rate trend")
	} else if len(points) > 0 {
		data["PassRateChart"] = template.HTML(s.charts.PassRateChart(points))
		data["LatencyChart"] = template.HTML(s.charts.LatencyChart(points))

		latencies := make([]float64, len(points))
		for i, point := range points {
			latencies[i] = point.AvgLatencyMs
		}
		data["LatencySparkline"] = template.HTML(s.charts.Sparkline(latencies))
	}

	s.render(w, "dashboard.html", data)
}

func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	projects, err := s.api.GetProjects(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("error getting projects")
		http.Error(w, "Failed to load projects", http.StatusInternalServerError)
		return
	}

	s.render(w, "project_list.html", map[string]interface{}{
		"Projects": projects,
		"Selected": s.currentProjectID(),
	})
}

func (s *Server) handleSelectProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}

	project, err := s.api.GetProject(r.Context(), id)
	if err != nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	serialized, err := json.Marshal(project)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.sessions.SetCurrentProject(string(serialized))
	s.log.Info().Int("project", id).Msg("project selected")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleTestCaseList(w http.ResponseWriter, r *http.Request) {
	projectID := s.currentProjectID()
	if q := r.URL.Query().Get("project"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil {
			projectID = parsed
		}
	}

	cases, err := s.api.GetTestCases(r.Context(), sensei.ListOptions{
		Project: projectID,
		Status:  r.URL.Query().Get("status"),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("error getting test cases")
		http.Error(w, "Failed to load test cases", http.StatusInternalServerError)
		return
	}

	if projectID > 0 {
		s.pollers.Ensure(projectID, cases)
	}

	s.render(w, "testcase_list.html", map[string]interface{}{
		"ProjectID": projectID,
		"TestCases": cases,
	})
}

func (s *Server) handleTestCaseDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid test case id", http.StatusBadRequest)
		return
	}

	tc, err := s.api.GetTestCase(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Msg("error getting test case")
		http.Error(w, "Test case not found", http.StatusNotFound)
		return
	}

	data := map[string]interface{}{
		"TestCase":   tc,
		"Report":     nil,
		"TestErrors": []sensei.TestError{},
	}

	if sensei.IsTerminal(tc.Status) {
		if report, err := s.api.GetReport(r.Context(), id); err != nil {
			s.log.Warn().Err(err).Int("test_case", id).Msg("no report available")
		} else {
			data["Report"] = report
		}
		if aggregates, err := s.api.GetTestErrors(r.Context(), id); err != nil {
			s.log.Warn().Err(err).Int("test_case", id).Msg("no error aggregates available")
		} else if aggregates != nil {
			data["TestErrors"] = aggregates
		}
	}

	s.render(w, "testcase_detail.html", data)
}

func (s *Server) handleRunTestCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid test case id", http.StatusBadRequest)
		return
	}

	tc, err := s.api.ExecuteTestCase(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Int("test_case", id).Msg("error executing test case")
		http.Error(w, "Failed to execute test case", http.StatusInternalServerError)
		return
	}

	s.log.Info().Int("test_case", id).Str("status", tc.Status).Msg("execution started")
	s.pollers.Ensure(tc.Project, []sensei.TestCase{*tc})

	w.Header().Set("HX-Trigger", `{"showMessage": "Test case started"}`)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStopTestCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid test case id", http.StatusBadRequest)
		return
	}

	if err := s.api.StopTestCase(r.Context(), id); err != nil {
		s.log.Error().Err(err).Int("test_case", id).Msg("error stopping test case")
		http.Error(w, "Failed to stop test case", http.StatusInternalServerError)
		return
	}

	w.Header().Set("HX-Trigger", `{"showMessage": "Stop requested"}`)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleTestCaseGraph(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid test case id", http.StatusBadRequest)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	if data, ok, err := s.graphs.Get(id, format); err == nil && ok {
		w.Header().Set("Content-Type", graphContentType(format))
		w.Write(data)
		return
	}

	var requested string
	if format != "json" {
		requested = format
	}
	data, err := s.api.DownloadGraph(r.Context(), id, requested)
	if err != nil {
		s.log.Error().Err(err).Int("test_case", id).Msg("error downloading graph")
		http.Error(w, "Failed to load graph", http.StatusInternalServerError)
		return
	}
	if err := s.graphs.Put(id, format, data); err != nil {
		s.log.Warn().Err(err).Msg("could not cache graph artifact")
	}

	w.Header().Set("Content-Type", graphContentType(format))
	w.Write(data)
}

func graphContentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "svg":
		return "image/svg+xml"
	case "pdf":
		return "application/pdf"
	default:
		return "application/json"
	}
}

func (s *Server) handleConnectorList(w http.ResponseWriter, r *http.Request) {
	connectors, err := s.api.GetConnectors(r.Context(), s.currentProjectID())
	if err != nil {
		s.log.Error().Err(err).Msg("error getting connectors")
		http.Error(w, "Failed to load connectors", http.StatusInternalServerError)
		return
	}

	s.render(w, "connector_list.html", map[string]interface{}{
		"Connectors": connectors,
	})
}

func (s *Server) render(w http.ResponseWriter, page string, data interface{}) {
	t, ok := s.templates[page]
	if !ok {
		s.log.Error().Str("page", page).Msg("template not found")
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		s.log.Error().Err(err).Str("page", page).Msg("template error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Shutdown tears down every poller owned by this server.
func (s *Server) Shutdown() {
	s.pollers.StopAll()
}
