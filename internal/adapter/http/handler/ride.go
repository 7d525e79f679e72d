package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Temutjin2k/ride-realtime/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/validator"
)

type RideService interface {
	Create(ctx context.Context, riderID uuid.UUID, pickup models.Location, dropoff *models.Location) (*models.Ride, error)
	Accept(ctx context.Context, rideID, driverID, vehicleID uuid.UUID) (*models.Ride, error)
	Start(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	Complete(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	Cancel(ctx context.Context, rideID, actorID uuid.UUID, actorIsRider bool, reason string) (*models.Ride, error)

	Get(ctx context.Context, rideID uuid.UUID, who models.Identity) (*models.RideDetails, error)
	List(ctx context.Context, who models.Identity, filter models.RideFilter) ([]*models.RideDetails, error)
	Details(ride *models.Ride) *models.RideDetails
}

type Ride struct {
	service RideService
	l       logger.Logger
}

func NewRide(service RideService, l logger.Logger) *Ride {
	return &Ride{
		service: service,
		l:       l,
	}
}

// CreateRide godoc
// @Summary      Request a ride
// @Description  Creates a PENDING ride for the authenticated rider and returns the estimated fare
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      dto.CreateRideRequest  true  "pickup and optional dropoff"
// @Success      201      {object}  dto.RideResponse
// @Failure      401,403,422,500  {object}  map[string]any
// @Router       /api/v1/rides [post]
func (h *Ride) CreateRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionRideCreate)

	who, ok := identity(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	var req dto.CreateRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	pickup, dropoff := req.ToModel()
	ride, err := h.service.Create(ctx, who.UserID, pickup, dropoff)
	if err != nil {
		code := GetCode(err)
		if code < http.StatusInternalServerError {
			h.l.Warn(ctx, "ride rejected", "error", err.Error())
		} else {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create ride", err)
		}
		errorResponse(w, code, errorMessage(err))
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"ride": dto.NewRideResponse(h.service.Details(ride))}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// ListRides godoc
// @Summary      List rides
// @Description  Riders get their own rides, drivers their assigned rides or open ones with status=PENDING
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "PENDING, ACCEPTED, IN_PROGRESS, COMPLETED or CANCELLED"
// @Param        limit   query     int     false  "page size, max 100"
// @Param        offset  query     int     false  "offset"
// @Success      200     {object}  map[string][]dto.RideResponse
// @Failure      401,403,422,500  {object}  map[string]any
// @Router       /api/v1/rides [get]
func (h *Ride) ListRides(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionRideList)

	who, ok := identity(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	qs := r.URL.Query()
	v := validator.New()
	q := dto.ParseListRidesQuery(v, qs.Get("status"), qs.Get("limit"), qs.Get("offset"))
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	rides, err := h.service.List(ctx, who, models.RideFilter{
		Status: q.Status,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list rides", err)
		errorResponse(w, GetCode(err), errorMessage(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"rides": dto.NewRideListResponse(rides)}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// GetRide godoc
// @Summary      Ride details
// @Description  Fare is filled only for COMPLETED rides, driver_location when a position is cached
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  dto.RideResponse
// @Failure      400,401,404,500  {object}  map[string]any
// @Router       /api/v1/rides/{ride_id} [get]
func (h *Ride) GetRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionRideGet)

	who, ok := identity(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	rideID, err := rideIDParam(r)
	if err != nil {
		badRequestResponse(w, "invalid ride uuid format")
		return
	}

	details, err := h.service.Get(ctx, rideID, who)
	if err != nil {
		if GetCode(err) >= http.StatusInternalServerError {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get ride", err)
		}
		errorResponse(w, GetCode(err), errorMessage(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": dto.NewRideResponse(details)}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// AcceptRide godoc
// @Summary      Accept a ride
// @Description  PENDING -> ACCEPTED, the caller becomes the assigned driver. Exactly one of concurrent accepts wins.
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string                 true  "ride id"
// @Param        request  body      dto.AcceptRideRequest  true  "vehicle"
// @Success      200      {object}  dto.RideResponse
// @Failure      400,401,403,404,409,422,500  {object}  map[string]any
// @Router       /api/v1/rides/{ride_id}/accept [post]
func (h *Ride) AcceptRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionRideAccept)

	who, ok := identity(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	rideID, err := rideIDParam(r)
	if err != nil {
		badRequestResponse(w, "invalid ride uuid format")
		return
	}

	var req dto.AcceptRideRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.service.Accept(ctx, rideID, who.UserID, uuid.MustParse(req.VehicleID))
	h.respondTransition(ctx, w, ride, err)
}

// StartRide godoc
// @Summary      Start a ride
// @Description  ACCEPTED -> IN_PROGRESS, only the assigned driver
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  dto.RideResponse
// @Failure      400,401,403,404,409,500  {object}  map[string]any
// @Router       /api/v1/rides/{ride_id}/start [post]
func (h *Ride) StartRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionRideStart)

	who, ok := identity(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	rideID, err := rideIDParam(r)
	if err != nil {
		badRequestResponse(w, "invalid ride uuid format")
		return
	}

	ride, err := h.service.Start(ctx, rideID, who.UserID)
	h.respondTransition(ctx, w, ride, err)
}

// CompleteRide godoc
// @Summary      Complete a ride
// @Description  IN_PROGRESS -> COMPLETED, only the assigned driver. The response carries the fare.
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string  true  "ride id"
// @Success      200      {object}  dto.RideResponse
// @Failure      400,401,403,404,409,500  {object}  map[string]any
// @Router       /api/v1/rides/{ride_id}/complete [post]
func (h *Ride) CompleteRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionRideComplete)

	who, ok := identity(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	rideID, err := rideIDParam(r)
	if err != nil {
		badRequestResponse(w, "invalid ride uuid format")
		return
	}

	ride, err := h.service.Complete(ctx, rideID, who.UserID)
	h.respondTransition(ctx, w, ride, err)
}

// CancelRide godoc
// @Summary      Cancel a ride
// @Description  Any non-terminal status -> CANCELLED, by the rider or the assigned driver
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ride_id  path      string                 true  "ride id"
// @Param        request  body      dto.CancelRideRequest  true  "reason"
// @Success      200      {object}  dto.RideResponse
// @Failure      400,401,403,404,409,422,500  {object}  map[string]any
// @Router       /api/v1/rides/{ride_id}/cancel [post]
func (h *Ride) CancelRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionRideCancel)

	who, ok := identity(r)
	if !ok {
		unauthorizedResponse(w)
		return
	}

	rideID, err := rideIDParam(r)
	if err != nil {
		badRequestResponse(w, "invalid ride uuid format")
		return
	}

	var req dto.CancelRideRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.service.Cancel(ctx, rideID, who.UserID, who.Role == types.RiderRole, req.Reason)
	h.respondTransition(ctx, w, ride, err)
}

func (h *Ride) respondTransition(ctx context.Context, w http.ResponseWriter, ride *models.Ride, err error) {
	if err != nil {
		code := GetCode(err)
		if code >= http.StatusInternalServerError {
			h.l.Error(wrap.ErrorCtx(ctx, err), "ride transition failed", err)
		} else {
			h.l.Info(ctx, "ride transition rejected", "reason", err.Error())
		}
		errorResponse(w, code, errorMessage(err))
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": dto.NewRideResponse(h.service.Details(ride))}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
