// Package data implements CSV export and import of rides.
//
// Export streams every non-deleted ride; import reads a multipart file and
// creates one ride per row without deduplication, so importing the same
// file twice doubles the rides. That is the intended contract.
package data

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/dbtime"
	"github.com/velolog/backend/internal/httputil"
	"github.com/velolog/backend/internal/repository"
)

// fileField is the multipart form field holding the import file.
const fileField = "rides-file"

var csvHeader = []string{"id", "date", "distance", "description", "bikeId", "stravaRide"}

// Handler exposes the export/import endpoints.
type Handler struct {
	rides *repository.RideRepository
	bikes *repository.BikeRepository
	rsp   *httputil.Responder
}

// NewHandler creates a data Handler.
func NewHandler(rides *repository.RideRepository, bikes *repository.BikeRepository, rsp *httputil.Responder) *Handler {
	return &Handler{rides: rides, bikes: bikes, rsp: rsp}
}

// Export handles GET /data/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	rides, err := h.rides.GetAll(r.Context())
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		h.rsp.Error(w, r, apperr.Internal(err))
		return
	}
	for _, ride := range rides {
		if err := writer.Write(rideRecord(ride)); err != nil {
			h.rsp.Error(w, r, apperr.Internal(err))
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.rsp.Error(w, r, apperr.Internal(err))
	}
}

// Import handles POST /data/import.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile(fileField)
	if err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("no file provided"))
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip the header row; a file without one is malformed anyway.
	if _, err := reader.Read(); err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("empty or unreadable file"))
		return
	}

	imported := 0
	knownBikes := map[int64]bool{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			h.rsp.Error(w, r, apperr.BadRequest("malformed CSV: %v", err))
			return
		}

		bikeID, partial, err := parseRecord(record)
		if err != nil {
			h.rsp.Error(w, r, err)
			return
		}

		if !knownBikes[bikeID] {
			if _, err := h.bikes.GetOne(r.Context(), bikeID); err != nil {
				if apperr.KindOf(err) == apperr.KindNotFound {
					err = apperr.BadRequest("unknown bike id %d", bikeID)
				}
				h.rsp.Error(w, r, err)
				return
			}
			knownBikes[bikeID] = true
		}

		if _, err := h.rides.Create(r.Context(), bikeID, partial); err != nil {
			h.rsp.Error(w, r, err)
			return
		}
		imported++
	}

	h.rsp.JSON(w, http.StatusOK, map[string]int{"imported": imported})
}

func rideRecord(ride *repository.Ride) []string {
	stravaRide := ""
	if ride.StravaRide != nil {
		stravaRide = strconv.FormatInt(*ride.StravaRide, 10)
	}
	return []string{
		strconv.FormatInt(ride.ID, 10),
		ride.Date.String(),
		strconv.FormatFloat(ride.Distance, 'f', -1, 64),
		ride.Description,
		strconv.FormatInt(ride.BikeID, 10),
		stravaRide,
	}
}

// parseRecord turns one CSV row back into a ride-create payload. The id
// column is ignored; rows are always inserted fresh.
func parseRecord(record []string) (int64, *repository.RidePartial, error) {
	if len(record) != len(csvHeader) {
		return 0, nil, apperr.BadRequest("expected %d columns, got %d", len(csvHeader), len(record))
	}

	date, err := dbtime.ParseDate(record[1])
	if err != nil {
		return 0, nil, apperr.BadRequest("invalid date %q", record[1])
	}
	distance, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return 0, nil, apperr.BadRequest("invalid distance %q", record[2])
	}
	bikeID, err := strconv.ParseInt(record[4], 10, 64)
	if err != nil {
		return 0, nil, apperr.BadRequest("invalid bike id %q", record[4])
	}

	var stravaRide *int64
	if record[5] != "" {
		id, err := strconv.ParseInt(record[5], 10, 64)
		if err != nil {
			return 0, nil, apperr.BadRequest("invalid strava ride id %q", record[5])
		}
		stravaRide = &id
	}

	return bikeID, &repository.RidePartial{
		Date:        dbtime.NewDate(date),
		Distance:    distance,
		Description: record[3],
		StravaRide:  stravaRide,
	}, nil
}
