package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/abhisek/taishitsu/internal/advice"
	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/export"
	"github.com/abhisek/taishitsu/internal/store"
)

const maxBodyBytes = 1 << 20

// DiagnoseRequest is the body of POST /api/diagnose.
type DiagnoseRequest struct {
	Age       string            `json:"age"`
	Gender    string            `json:"gender"`
	Responses map[string]string `json:"responses"`
}

// DiagnoseResponse is returned by POST /api/diagnose. Saved reports whether
// the result was written to the history store.
type DiagnoseResponse struct {
	Result *engine.Result    `json:"result"`
	Name   string            `json:"name"`
	Advice *advice.Narration `json:"advice,omitempty"`
	Saved  bool              `json:"saved"`
}

// Diagnose handles POST /api/diagnose.
func (h *handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req DiagnoseRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	cat := h.Engine.Catalog()
	res := h.Engine.DiagnoseMap(req.Responses)
	rec := store.NewRecord(res, store.Profile{Age: req.Age, Gender: req.Gender},
		req.Responses, cat.FreeTextQuestion())

	resp := DiagnoseResponse{Result: res, Name: cat.Name(res.Category)}

	if h.Records != nil {
		if err := h.Records.Save(ctx, rec); err != nil {
			slog.WarnContext(ctx, "save diagnosis", "id", rec.ID, "error", err)
		} else {
			resp.Saved = true
		}
	}
	if h.CSVPath != "" {
		if err := export.AppendCSV(h.CSVPath, rec, cat.Questions()); err != nil {
			slog.WarnContext(ctx, "append csv", "path", h.CSVPath, "error", err)
		}
	}
	if h.Advice != nil {
		resp.Advice = h.Advice.Narrate(ctx, h.Advice.Input(res, req.Age, req.Gender, rec.FreeTextConcern))
	}

	writeJSON(w, http.StatusOK, resp)
}

type categoryView struct {
	ID     catalog.Category `json:"id"`
	Name   string           `json:"name"`
	Advice catalog.Advice   `json:"advice"`
}

type catalogView struct {
	Version          string             `json:"version"`
	PositiveAnswer   string             `json:"positive_answer"`
	NoneSelected     string             `json:"none_selected"`
	FreeTextQuestion int                `json:"free_text_question"`
	Categories       []categoryView     `json:"categories"`
	Questions        []catalog.Question `json:"questions"`
}

// Catalog handles GET /api/catalog. Rule weights are not exposed.
func (h *handler) Catalog(w http.ResponseWriter, r *http.Request) {
	cat := h.Engine.Catalog()
	view := catalogView{
		Version:          cat.Version(),
		PositiveAnswer:   cat.PositiveAnswer(),
		NoneSelected:     cat.NoneSelected(),
		FreeTextQuestion: cat.FreeTextQuestion(),
		Questions:        cat.Questions(),
	}
	for _, c := range cat.Categories() {
		a, _ := cat.Advice(c)
		view.Categories = append(view.Categories, categoryView{ID: c, Name: cat.Name(c), Advice: a})
	}
	writeJSON(w, http.StatusOK, view)
}

// Results handles GET /api/results?limit=&category=&from=&to=.
func (h *handler) Results(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	opts, err := parseQueryOpts(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := h.Records.History(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// Result handles GET /api/results/{id}.
func (h *handler) Result(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	rec, err := h.Records.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Stats handles GET /api/stats.
func (h *handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	stats, err := h.Records.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export handles GET /api/export.csv. It accepts the same filters as Results.
func (h *handler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.historyEnabled(w) {
		return
	}
	opts, err := parseQueryOpts(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := h.Records.History(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="diagnosis_results.csv"`)
	if err := export.WriteCSV(w, recs, h.Engine.Catalog().Questions()); err != nil {
		slog.WarnContext(r.Context(), "write csv export", "error", err)
	}
}

func (h *handler) historyEnabled(w http.ResponseWriter) bool {
	if h.Records == nil {
		writeError(w, http.StatusServiceUnavailable, "result history is disabled")
		return false
	}
	return true
}

func parseQueryOpts(r *http.Request) (store.QueryOpts, error) {
	q := r.URL.Query()
	opts := store.QueryOpts{Category: q.Get("category")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &opts.From}, {"to", &opts.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errors.New(p.name + " must be an RFC 3339 timestamp")
		}
		*p.dst = t
	}
	return opts, nil
}
