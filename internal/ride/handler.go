// Package ride exposes the ride endpoints nested under a bike, including
// the monthly and yearly aggregations the stats pages are built on.
package ride

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/velolog/backend/internal/apperr"
	"github.com/velolog/backend/internal/appctx"
	"github.com/velolog/backend/internal/bike"
	"github.com/velolog/backend/internal/httputil"
	"github.com/velolog/backend/internal/repository"
)

// Month is one calendar month bucket of rides for a bike.
type Month struct {
	Year          int                `json:"year"`
	Month         int                `json:"month"`
	TotalDistance float64            `json:"totalDistance"`
	Rides         []*repository.Ride `json:"rides"`
}

// Handler exposes the ride endpoints.
type Handler struct {
	bikes    *repository.BikeRepository
	rides    *repository.RideRepository
	rsp      *httputil.Responder
	validate *validator.Validate
}

// NewHandler creates a ride Handler.
func NewHandler(bikes *repository.BikeRepository, rides *repository.RideRepository, rsp *httputil.Responder) *Handler {
	return &Handler{
		bikes:    bikes,
		rides:    rides,
		rsp:      rsp,
		validate: validator.New(),
	}
}

// ownedBike resolves the {id} route parameter and asserts the caller owns
// that bike. Every ride endpoint goes through this gate.
func (h *Handler) ownedBike(r *http.Request) (int64, error) {
	user, ok := appctx.UserFrom(r.Context())
	if !ok {
		return 0, apperr.Unauthenticated()
	}

	bikeID, err := bike.PathID(r)
	if err != nil {
		return 0, err
	}

	if err := h.bikes.AssertOwner(r.Context(), bikeID, user.ID); err != nil {
		return 0, err
	}
	return bikeID, nil
}

// GetAll handles GET /bikes/{id}/rides.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	bikeID, err := h.ownedBike(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	rides, err := h.rides.GetAllForBike(r.Context(), bikeID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, rides)
}

// Create handles POST /bikes/{id}/rides.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	bikeID, err := h.ownedBike(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	var partial repository.RidePartial
	if err := httputil.Decode(r, &partial); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(partial); err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("invalid ride payload"))
		return
	}

	ride, err := h.rides.Create(r.Context(), bikeID, &partial)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusCreated, ride)
}

// GetOne handles GET /bikes/{id}/rides/{rideID}.
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ownedBike(r); err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	rideID, err := pathRideID(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	ride, err := h.rides.GetOne(r.Context(), rideID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, ride)
}

// Update handles PUT /bikes/{id}/rides/{rideID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ownedBike(r); err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	rideID, err := pathRideID(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	var partial repository.RidePartial
	if err := httputil.Decode(r, &partial); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(partial); err != nil {
		h.rsp.Error(w, r, apperr.BadRequest("invalid ride payload"))
		return
	}

	ride, err := h.rides.Update(r.Context(), rideID, &partial)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, ride)
}

// Delete handles DELETE /bikes/{id}/rides/{rideID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ownedBike(r); err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	rideID, err := pathRideID(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	if err := h.rides.Delete(r.Context(), rideID); err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.NoContent(w)
}

// ActiveYears handles GET /bikes/{id}/rides/years.
func (h *Handler) ActiveYears(w http.ResponseWriter, r *http.Request) {
	bikeID, err := h.ownedBike(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	years, err := h.rides.ActiveYears(r.Context(), bikeID)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, years)
}

// Monthly handles GET /bikes/{id}/rides/monthly/{year}: twelve buckets,
// December first, each with its rides and distance total.
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	bikeID, err := h.ownedBike(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	year, err := pathInt(r, "year")
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	rides, err := h.rides.GetAllForBikeWithDatePrefix(r.Context(), bikeID, fmt.Sprintf("%04d-", year))
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	months := make([]*Month, 12)
	for i := range months {
		months[i] = &Month{Year: year, Month: 12 - i, Rides: []*repository.Ride{}}
	}
	for _, ride := range rides {
		bucket := months[12-int(ride.Date.Month())]
		bucket.TotalDistance += ride.Distance
		bucket.Rides = append(bucket.Rides, ride)
	}

	h.rsp.JSON(w, http.StatusOK, months)
}

// TotalForYear handles GET /bikes/{id}/rides/total/{year}: the summed
// distance of the bike's rides in that year.
func (h *Handler) TotalForYear(w http.ResponseWriter, r *http.Request) {
	bikeID, err := h.ownedBike(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	year, err := pathInt(r, "year")
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	total, err := h.rides.TotalDistanceForBike(r.Context(), bikeID, fmt.Sprintf("%04d-", year))
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	h.rsp.JSON(w, http.StatusOK, total)
}

// GetMonth handles GET /bikes/{id}/rides/monthly/{year}/{month}.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	bikeID, err := h.ownedBike(r)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	year, err := pathInt(r, "year")
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	month, err := pathInt(r, "month")
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}
	if month < 1 || month > 12 {
		h.rsp.Error(w, r, apperr.BadRequest("invalid month %d", month))
		return
	}

	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	rides, err := h.rides.GetAllForBikeWithDatePrefix(r.Context(), bikeID, prefix)
	if err != nil {
		h.rsp.Error(w, r, err)
		return
	}

	bucket := &Month{Year: year, Month: month, Rides: rides}
	for _, ride := range rides {
		bucket.TotalDistance += ride.Distance
	}

	h.rsp.JSON(w, http.StatusOK, bucket)
}

func pathRideID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "rideID"), 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("invalid ride id")
	}
	return id, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, apperr.BadRequest("invalid %s", name)
	}
	return n, nil
}
