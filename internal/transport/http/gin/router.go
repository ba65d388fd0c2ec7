package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parkwise/parkgo/internal/repository"
	redisrepo "github.com/parkwise/parkgo/internal/repository/redis"
	"github.com/parkwise/parkgo/internal/service"
	"github.com/parkwise/parkgo/internal/service/allocation"
	"github.com/parkwise/parkgo/internal/service/booking"
	"github.com/parkwise/parkgo/internal/service/lots"
	"github.com/parkwise/parkgo/internal/service/query"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/lots", handleListLots(svcs))
	r.GET("/lots/:id", handleGetLot(svcs))
	r.GET("/lots/:id/availability", handleGetAvailability(svcs))
	r.GET("/lots/:id/spots", handleListSpots(svcs))

	// Booking API, caller identity required
	user := r.Group("/", IdentityMiddleware())
	{
		user.POST("/bookings", handleOpenBooking(svcs, idem))
		user.POST("/bookings/:id/close", handleCloseBooking(svcs))
		user.GET("/bookings/:id", handleGetBooking(svcs))
		user.GET("/me/bookings", handleMyBookings(svcs))
	}

	// Admin API
	admin := r.Group("/admin", IdentityMiddleware(), AdminOnly())
	{
		admin.POST("/lots", handleCreateLot(svcs))
		admin.PUT("/lots/:id", handleResizeLot(svcs))
		admin.DELETE("/lots/:id", handleDeleteLot(svcs))
		admin.DELETE("/spots/:id", handleDeleteSpot(svcs))
		admin.GET("/spots/:id", handleSpotDetail(svcs))
		admin.GET("/summary", handleSummary(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List lots
// @Param    location  query  string  false  "location substring"
// @Param    pincode   query  string  false  "exact 6-digit pincode"
// @Param    limit     query  int     false  "page size"
// @Param    offset    query  int     false  "offset"
// @Success  200  {array}  domain.Lot
// @Router   /lots [get]
func handleListLots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		out, err := svcs.Query.ListLots(
			c.Request.Context(),
			c.Query("location"),
			c.Query("pincode"),
			limit,
			offset,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Get lot
// @Param    id  path  int  true  "Lot ID"
// @Success  200  {object}  domain.Lot
// @Failure  404  {object}  ErrorResponse
// @Router   /lots/{id} [get]
func handleGetLot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lotID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		lot, err := svcs.Query.GetLot(c.Request.Context(), lotID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, lot)
	}
}

// @Summary  Get lot availability counters
// @Param    id  path  int  true  "Lot ID"
// @Success  200  {object}  domain.LotCounts
// @Router   /lots/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lotID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		cnt, err := svcs.Query.Availability(c.Request.Context(), lotID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Cache-Control", "public, max-age=5")
		c.JSON(http.StatusOK, cnt)
	}
}

// @Summary  List lot spots
// @Param    id  path  int  true  "Lot ID"
// @Success  200  {array}  domain.Spot
// @Router   /lots/{id}/spots [get]
func handleListSpots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lotID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		spots, err := svcs.Query.ListSpots(c.Request.Context(), lotID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Cache-Control", "public, max-age=5")
		c.JSON(http.StatusOK, spots)
	}
}

// @Summary  Open booking (idempotent)
// @Param    req body  OpenBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "no available spot / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings [post]
func handleOpenBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OpenBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		userID := c.GetInt64("user_id")

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(userID, req.LotID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		b, err := svcs.Booking.Open(
			c.Request.Context(),
			req.LotID,
			userID,
			req.Vehicle,
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, booking.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: err.Error()},
				)
				return
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(b)

		if idemStorageKey != "" && idem != nil {
			bs, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(bs))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Close booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} CloseBookingResponse
// @Failure  403 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already closed"
// @Router   /bookings/{id}/close [post]
func handleCloseBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid booking id")
			return
		}

		receipt, err := svcs.Booking.Close(
			c.Request.Context(),
			bookingID,
			c.GetInt64("user_id"),
			c.GetBool("is_admin"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, CloseBookingResponse{
			BookingID: receipt.BookingID.String(),
			Hours:     receipt.Hours,
			Amount:    receipt.Amount,
			ExitTime:  receipt.ExitTime,
		})
	}
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid booking id")
			return
		}

		b, err := svcs.Booking.Get(
			c.Request.Context(),
			bookingID,
			c.GetInt64("user_id"),
			c.GetBool("is_admin"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  List caller's bookings
// @Param    open    query  bool  false  "only open bookings"
// @Param    limit   query  int   false  "page size"
// @Param    offset  query  int   false  "offset"
// @Success  200 {array} BookingResponse
// @Router   /me/bookings [get]
func handleMyBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		bookings, err := svcs.Query.UserBookings(
			c.Request.Context(),
			c.GetInt64("user_id"),
			c.Query("open") == "true",
			limit,
			offset,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]*BookingResponse, 0, len(bookings))
		for i := range bookings {
			out = append(out, toBookingResponse(&bookings[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Create lot with spots
// @Param    req body  CreateLotRequest true "payload"
// @Success  201 {object} CreateLotResponse
// @Failure  400 {object} ErrorResponse
// @Router   /admin/lots [post]
func handleCreateLot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		lot, err := svcs.Lots.Create(
			c.Request.Context(),
			req.Location,
			req.Address,
			req.Pincode,
			req.Capacity,
			req.PricePerHour,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateLotResponse{LotID: lot.ID})
	}
}

// @Summary  Resize lot and update price
// @Param    id  path  int  true  "Lot ID"
// @Param    req body  ResizeLotRequest true "payload"
// @Success  204
// @Failure  409 {object} ErrorResponse "capacity below occupied spots"
// @Router   /admin/lots/{id} [put]
func handleResizeLot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lotID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req ResizeLotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Lots.Resize(
			c.Request.Context(),
			lotID,
			req.Capacity,
			req.PricePerHour,
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete lot
// @Param    id  path  int  true  "Lot ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "lot has occupied spots"
// @Router   /admin/lots/{id} [delete]
func handleDeleteLot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lotID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Lots.Delete(c.Request.Context(), lotID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete single available spot
// @Param    id  path  int  true  "Spot ID"
// @Success  204
// @Failure  409 {object} ErrorResponse "spot is occupied"
// @Router   /admin/spots/{id} [delete]
func handleDeleteSpot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		spotID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Lots.DeleteSpot(c.Request.Context(), spotID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Spot detail with active booking
// @Param    id  path  int  true  "Spot ID"
// @Success  200 {object} SpotDetailResponse
// @Router   /admin/spots/{id} [get]
func handleSpotDetail(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		spotID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		spot, active, err := svcs.Query.SpotDetail(c.Request.Context(), spotID)
		if err != nil {
			respondErr(c, err)
			return
		}

		resp := SpotDetailResponse{Spot: *spot}
		if active != nil {
			resp.Booking = toBookingResponse(active)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  System occupancy summary
// @Success  200 {object} domain.Summary
// @Router   /admin/summary [get]
func handleSummary(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svcs.Query.Summary(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrInvalidVehicle):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: booking.ErrInvalidVehicle.Error()})
	case errors.Is(err, booking.ErrLotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "lot not found"})
	case errors.Is(err, booking.ErrNoAvailableSpot):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no available spot"})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, booking.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not the booking owner"})
	case errors.Is(err, booking.ErrAlreadyClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "booking already closed"})
	// allocation service
	case errors.Is(err, allocation.ErrLotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "lot not found"})
	case errors.Is(err, allocation.ErrNoAvailableSpot):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "no available spot"})
	case errors.Is(err, allocation.ErrSpotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "spot not found"})
	case errors.Is(err, allocation.ErrAlreadyAvailable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "spot already available"})
	// lots service
	case errors.Is(err, lots.ErrLotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "lot not found"})
	case errors.Is(err, lots.ErrSpotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "spot not found"})
	case errors.Is(err, lots.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, lots.ErrCapacityViolation):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "capacity below occupied spots"})
	case errors.Is(err, lots.ErrOccupiedSpots):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "lot has occupied spots"})
	case errors.Is(err, lots.ErrSpotOccupied):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "spot is occupied"})
	// query service
	case errors.Is(err, query.ErrLotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "lot not found"})
	case errors.Is(err, query.ErrSpotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "spot not found"})
	case errors.Is(err, query.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	// store
	case errors.Is(err, repository.ErrTransient):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store temporarily unavailable, retry"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
