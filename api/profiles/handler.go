// Package profiles exposes the profile database over a read-only HTTP API.
package profiles

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gridsim/bevflow/core/database"
	"github.com/gridsim/bevflow/core/model"
)

// Summary is the list representation of a stored profile.
type Summary struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Group     string    `json:"group,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Series    []string  `json:"series"`
}

// NewHandler returns an HTTP handler exposing the profile database via
// GET /api/profiles and GET /api/profiles/{name}.
func NewHandler(db *database.DB) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/profiles", func(w http.ResponseWriter, r *http.Request) {
		kind := model.ProfileKind(r.URL.Query().Get("kind"))
		// An empty list must encode as [], not null.
		out := []Summary{}
		for _, name := range db.Names() {
			p, err := db.Get(name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if kind != "" && p.Kind != kind {
				continue
			}
			out = append(out, summarize(p))
		}
		writeJSON(w, out)
	})
	mux.HandleFunc("GET /api/profiles/{name}", func(w http.ResponseWriter, r *http.Request) {
		p, err := db.Get(r.PathValue("name"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, p)
	})
	return mux
}

func summarize(p *model.Profile) Summary {
	series := make([]string, 0, len(p.Series))
	for k := range p.Series {
		series = append(series, k)
	}
	sort.Strings(series)
	return Summary{
		Name:      p.Name,
		Kind:      string(p.Kind),
		Group:     p.Group,
		Source:    p.Source,
		CreatedAt: p.CreatedAt,
		Series:    series,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
