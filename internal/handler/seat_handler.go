package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/seatwise-api/internal/models"
	"github.com/seatwise/seatwise-api/internal/service"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
	"github.com/seatwise/seatwise-api/pkg/response"
)

// SeatHandler exposes seat endpoints.
type SeatHandler struct {
	assignments *service.AssignmentService
}

// NewSeatHandler constructs SeatHandler.
func NewSeatHandler(assignments *service.AssignmentService) *SeatHandler {
	return &SeatHandler{assignments: assignments}
}

// List godoc
// @Summary List seats
// @Tags Seats
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search by seat number"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /seats [get]
func (h *SeatHandler) List(c *gin.Context) {
	var filter models.SeatFilter
	filter.Status = models.SeatStatus(strings.ToLower(c.Query("status")))
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	seats, pagination, err := h.assignments.ListSeats(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seats, pagination)
}

// Get godoc
// @Summary Get a seat
// @Tags Seats
// @Produce json
// @Param id path string true "Seat ID"
// @Success 200 {object} response.Envelope
// @Router /seats/{id} [get]
func (h *SeatHandler) Get(c *gin.Context) {
	seat, err := h.assignments.GetSeat(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seat, nil)
}

// Create godoc
// @Summary Register a seat
// @Tags Seats
// @Accept json
// @Produce json
// @Param payload body service.CreateSeatRequest true "Seat payload"
// @Success 201 {object} response.Envelope
// @Router /seats [post]
func (h *SeatHandler) Create(c *gin.Context) {
	var req service.CreateSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	seat, err := h.assignments.CreateSeat(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, seat)
}

// Assign godoc
// @Summary Assign a seat to a student
// @Tags Seats
// @Accept json
// @Produce json
// @Param id path string true "Seat ID"
// @Param payload body service.AssignSeatRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /seats/{id}/assign [post]
func (h *SeatHandler) Assign(c *gin.Context) {
	var req service.AssignSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.assignments.AssignSeat(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Deallocate godoc
// @Summary Free a seat
// @Tags Seats
// @Produce json
// @Param id path string true "Seat ID"
// @Success 200 {object} response.Envelope
// @Router /seats/{id}/deallocate [post]
func (h *SeatHandler) Deallocate(c *gin.Context) {
	result, err := h.assignments.DeallocateSeat(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateStatus godoc
// @Summary Change seat status (administrative)
// @Tags Seats
// @Accept json
// @Produce json
// @Param id path string true "Seat ID"
// @Param payload body handler.SeatStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /seats/{id}/status [put]
func (h *SeatHandler) UpdateStatus(c *gin.Context) {
	var req SeatStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	seat, err := h.assignments.UpdateSeatStatus(c.Request.Context(), c.Param("id"), models.SeatStatus(strings.ToLower(req.Status)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seat, nil)
}

// SeatStatusRequest carries the target status for administrative updates.
type SeatStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
