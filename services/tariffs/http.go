package tariffs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RegisterRoutes mounts the trigger/status/download surface. The
// routes and their payload shapes match the original comparison
// frontend's expectations.
func RegisterRoutes(mux *http.ServeMux, s *Service) {
	mux.HandleFunc("/api/scrape", s.handleScrape)
	mux.HandleFunc("/api/tariffs", s.handleTariffs)
	mux.HandleFunc("/api/download", s.handleDownload)
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Service) handleScrape(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = "vodafone"
	}

	err := s.StartScrape(provider)
	if errors.Is(err, ErrAlreadyRunning) {
		writeJSON(w, http.StatusConflict, scrapeResponse{
			Success: false,
			Message: "a scrape is already running",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, scrapeResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, scrapeResponse{
		Success: true,
		Message: "scrape started for " + provider,
	})
}

func (s *Service) handleTariffs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	path := s.OutputFile()
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "no report has been generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="tarifeler.xlsx"`)
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}
