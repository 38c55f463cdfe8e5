package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tecfleet/fuelcapture/internal/capture"
)

// dateLayout is the wire format for capture dates.
const dateLayout = "2006-01-02"

// pricesDTO carries the per-liter unit prices, one per fuel type.
type pricesDTO struct {
	Regular float64 `json:"regular"`
	Mid     float64 `json:"mid"`
	Premium float64 `json:"premium"`
	Diesel  float64 `json:"diesel"`
}

func (p pricesDTO) toPrices() capture.Prices {
	var out capture.Prices
	out[capture.FuelRegular] = p.Regular
	out[capture.FuelMid] = p.Mid
	out[capture.FuelPremium] = p.Premium
	out[capture.FuelDiesel] = p.Diesel
	return out
}

// rowDTO is one vehicle row as submitted by the capture form. Volumes and
// the ending odometer arrive as strings because the form allows blanks.
type rowDTO struct {
	Unit    string `json:"unit"`
	EndKm   string `json:"endKm"`
	Regular string `json:"regular"`
	Mid     string `json:"mid"`
	Premium string `json:"premium"`
	Diesel  string `json:"diesel"`
}

func (r rowDTO) toInput() capture.RowInput {
	in := capture.RowInput{Unit: r.Unit, EndKm: r.EndKm}
	in.Liters[capture.FuelRegular] = r.Regular
	in.Liters[capture.FuelMid] = r.Mid
	in.Liters[capture.FuelPremium] = r.Premium
	in.Liters[capture.FuelDiesel] = r.Diesel
	return in
}

// submissionDTO is the POST /api/capture request body.
type submissionDTO struct {
	Region string    `json:"region"`
	Depot  string    `json:"depot"`
	Date   string    `json:"date"`
	Prices pricesDTO `json:"prices"`
	Rows   []rowDTO  `json:"rows"`
}

// rowResultDTO is one row outcome in the submission response.
type rowResultDTO struct {
	Unit    string `json:"unit"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// submissionResponse is the POST /api/capture response body.
type submissionResponse struct {
	SubmissionID string               `json:"submissionId"`
	Region       string               `json:"region"`
	Depot        string               `json:"depot"`
	Date         string               `json:"date"`
	Rows         []rowResultDTO       `json:"rows"`
	Stored       int                  `json:"stored"`
	Skipped      int                  `json:"skipped"`
	Rejected     int                  `json:"rejected"`
	Mirror       capture.MirrorStatus `json:"mirror"`
}

// parseDate reads the date query or body value in YYYY-MM-DD form.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be %s: %q", dateLayout, value)
	}
	return d, nil
}

// handleWorkingSet serves GET /api/capture: the editable depot-day screen
// with starting odometers resolved from history or baseline.
func (s *Server) handleWorkingSet(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	depot := r.URL.Query().Get("depot")
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad-date", err.Error())
		return
	}

	ws, err := s.service.WorkingSet(r.Context(), region, depot, date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// handleSubmit serves POST /api/capture: one complete capture attempt.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var dto submissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad-body", "request body must be valid JSON")
		return
	}
	date, err := parseDate(dto.Date)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad-date", err.Error())
		return
	}

	sub := capture.Submission{
		Region: dto.Region,
		Depot:  dto.Depot,
		Date:   date,
		Prices: dto.Prices.toPrices(),
	}
	for _, row := range dto.Rows {
		sub.Rows = append(sub.Rows, row.toInput())
	}

	res, err := s.service.Submit(r.Context(), sub)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := submissionResponse{
		SubmissionID: res.SubmissionID,
		Region:       res.Region,
		Depot:        res.Depot,
		Date:         res.Date.Format(dateLayout),
		Rows:         make([]rowResultDTO, 0, len(res.Rows)),
		Stored:       res.Stored,
		Skipped:      res.Skipped,
		Rejected:     res.Rejected,
		Mirror:       res.Mirror,
	}
	for _, rr := range res.Rows {
		resp.Rows = append(resp.Rows, rowResultDTO{
			Unit:    rr.Unit,
			Outcome: string(rr.Outcome),
			Reason:  string(rr.Reason),
			Detail:  rr.Detail,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMissing serves GET /api/missing: catalog vehicles of a depot with
// no stored record for the date.
func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	depot := r.URL.Query().Get("depot")
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "bad-date", err.Error())
		return
	}

	missing, err := s.service.MissingVehicles(r.Context(), region, depot, date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":    date.Format(dateLayout),
		"missing": missing,
	})
}

// handleHealth serves GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
