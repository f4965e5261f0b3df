package booking

import (
	"errors"
	"net/http"
	"path"
	"strconv"
	"time"

	"speakbook/internal/api"
	"speakbook/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// respondError maps the booking error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNoPendingCheckout):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "No pending checkout"})
	case errors.Is(err, ErrSlotNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Slot not found"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
	case errors.Is(err, ErrSlotStarted):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot has already started"})
	case errors.Is(err, ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Booking already cancelled"})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot already booked"})
	case errors.Is(err, ErrRefundFailed):
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Refund failed, booking unchanged"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
	}
}

func bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid booking ID"})
		return uuid.Nil, false
	}
	return id, true
}

func requireUser(c *gin.Context) (int, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
	}
	return userID, ok
}

// Checkout godoc
// @Summary      Start checkout
// @Description  Opens a gateway order for an open slot. The slot is held server-side until verification.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        slotID  path      int  true  "Slot ID"
// @Success      200     {object}  CheckoutResult
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /checkout/{slotID} [post]
func (h *Handler) Checkout(c *gin.Context) {
	clientID, ok := requireUser(c)
	if !ok {
		return
	}

	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid slot ID"})
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), clientID, slotID)
	if err != nil {
		respondError(c, err, "Failed to start checkout")
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyPayment godoc
// @Summary      Verify payment
// @Description  Confirms the gateway payment and books the slot from the caller's pending checkout.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      VerifyRequest  true  "Gateway payment confirmation"
// @Success      200      {object}  api.StatusResponse
// @Failure      400      {object}  api.StatusResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /payment/verify [post]
func (h *Handler) VerifyPayment(c *gin.Context) {
	clientID, ok := requireUser(c)
	if !ok {
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.StatusResponse{Status: "error"})
		return
	}

	b, err := h.service.VerifyPayment(c.Request.Context(), clientID, req)
	if err != nil {
		if errors.Is(err, ErrSignatureInvalid) {
			c.JSON(http.StatusBadRequest, api.StatusResponse{Status: "error"})
			return
		}
		respondError(c, err, "Failed to confirm booking")
		return
	}

	c.JSON(http.StatusOK, api.StatusResponse{Status: "success", BookingID: b.BookingID.String()})
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Refunds the payment and releases the slot. Nothing changes if the refund fails.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking UUID"
// @Success      200        {object}  Booking
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Failure      502        {object}  api.ErrorResponse
// @Failure      500        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	clientID, ok := requireUser(c)
	if !ok {
		return
	}
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), clientID, bookingID)
	if err != nil {
		respondError(c, err, "Failed to cancel booking")
		return
	}

	c.JSON(http.StatusOK, b)
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   BookingWithDetails
// @Failure      500  {object}  api.ErrorResponse
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	clientID, ok := requireUser(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListMyBookings(c.Request.Context(), clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// DownloadInvoice godoc
// @Summary      Download invoice
// @Tags         bookings
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        bookingID  path  string  true  "Booking UUID"
// @Success      200
// @Failure      400  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /bookings/{bookingID}/invoice [get]
func (h *Handler) DownloadInvoice(c *gin.Context) {
	clientID, ok := requireUser(c)
	if !ok {
		return
	}
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}

	inv, err := h.service.Invoice(c.Request.Context(), clientID, bookingID)
	if err != nil {
		respondError(c, err, "Failed to fetch invoice")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+path.Base(inv.FileName)+`"`)
	c.Data(http.StatusOK, "application/pdf", inv.Content)
}

// ClientDashboard godoc
// @Summary      Client dashboard
// @Description  Approved providers with open slots, own bookings, price and session length.
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ClientDashboard
// @Failure      500  {object}  api.ErrorResponse
// @Router       /dashboard [get]
func (h *Handler) ClientDashboard(c *gin.Context) {
	clientID, ok := requireUser(c)
	if !ok {
		return
	}

	d, err := h.service.ClientDashboard(c.Request.Context(), clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, d)
}

// ProviderDashboard godoc
// @Summary      Provider dashboard
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ProviderDashboard
// @Failure      404  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /provider/dashboard [get]
func (h *Handler) ProviderDashboard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	d, err := h.service.ProviderDashboard(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Provider profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, d)
}

// AdminListBookings godoc
// @Summary      List all bookings
// @Tags         admin,bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   BookingWithDetails
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/bookings [get]
func (h *Handler) AdminListBookings(c *gin.Context) {
	bookings, err := h.service.AdminList(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// AdminStats godoc
// @Summary      Booking statistics
// @Description  Bookings, cancellations and revenue per day and per provider. Defaults to the last 30 days.
// @Tags         admin,bookings
// @Security     BearerAuth
// @Produce      json
// @Param        from  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query  string  false  "End date, exclusive (YYYY-MM-DD)"
// @Success      200   {object}  Stats
// @Failure      400   {object}  api.ErrorResponse
// @Failure      500   {object}  api.ErrorResponse
// @Router       /admin/stats [get]
func (h *Handler) AdminStats(c *gin.Context) {
	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -30)

	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.DateOnly, raw); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "from must be YYYY-MM-DD"})
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.DateOnly, raw); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "to must be YYYY-MM-DD"})
			return
		}
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "from must be before to"})
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
