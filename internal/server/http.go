package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/morezero/host-interop/pkg/commsutil"
	"github.com/morezero/host-interop/pkg/db"
)

// healthOutput is the /health response.
type healthOutput struct {
	Status       string `json:"status"`
	COMMS        string `json:"comms"`
	Database     string `json:"database,omitempty"`
	HostDeclared bool   `json:"hostDeclared"`
	Standalone   bool   `json:"standalone"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/session", s.handleSession)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	h := healthOutput{
		Status:       "healthy",
		COMMS:        commsutil.Status(s.nc),
		HostDeclared: snap.HostDeclared,
		Standalone:   snap.Standalone,
	}
	healthy := s.nc != nil && s.nc.IsConnected() && snap.HostDeclared
	if s.pool != nil {
		h.Database = "ok"
		if err := db.Ping(r.Context(), s.pool); err != nil {
			h.Database = "unreachable"
			healthy = false
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		h.Status = "unhealthy"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(h)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.session.Registry().HostDeclared() {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "waiting for host"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.session.Snapshot()); err != nil {
		slog.Error(fmt.Sprintf("%s - session encode: %v", logPrefix, err))
	}
}

// homePageTemplate is the HTML status page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Host Interop</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    h1, h2 { color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .error { color: #cc0000; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>Host Interop</h1>

  <section>
    <h2>Session</h2>
    <p>Client id: <span class="stat">{{.ClientID}}</span></p>
    <p>Host type: {{if .HostType}}<span class="stat">{{.HostType}}</span>{{else}}<span class="error">unknown</span>{{end}}{{if .Standalone}} (standalone){{end}}</p>
    <p>Selection via: {{if .SelectionVia}}<span class="stat">{{.SelectionVia}}</span>{{else}}<span class="error">no supported version</span>{{end}}</p>
    <p>Fuzzy echo suppression: {{.FuzzyEcho}}; live echo records: {{.EchoRecords}}; component contexts: {{.Components}}</p>
  </section>

  <section>
    <h2>Services</h2>
    <table>
      <thead><tr><th>Client service</th><th>Version</th></tr></thead>
      <tbody>
        {{range .ClientServices}}<tr><td>{{.FullyQualifiedName}}</td><td>{{.Version}}</td></tr>{{end}}
      </tbody>
    </table>
    <table>
      <thead><tr><th>Host service</th><th>Version</th></tr></thead>
      <tbody>
        {{range .HostServices}}<tr><td>{{.FullyQualifiedName}}</td><td>{{.Version}}</td></tr>{{else}}<tr><td colspan="2">None declared.</td></tr>{{end}}
      </tbody>
    </table>
  </section>
</body>
</html>
`

func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := s.session.Snapshot()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, snap); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
