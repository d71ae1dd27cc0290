package events

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventia/backend/internal/middleware"
	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description"`
	EventDate       string  `json:"event_date" binding:"required"` // YYYY-MM-DD
	EventTime       string  `json:"event_time"`                    // HH:MM:SS
	EndDate         *string `json:"end_date"`
	EndTime         *string `json:"end_time"`
	Location        string  `json:"location"`
	City            string  `json:"city"`
	Province        string  `json:"province"`
	OrganizerName   string  `json:"organizer_name"`
	MaxParticipants *int    `json:"max_participants"`
	Price           int64   `json:"price"`
	IsFree          bool    `json:"is_free"`
	HasCertificate  bool    `json:"has_certificate"`
	Status          string  `json:"status"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid event id")
		return 0, false
	}
	return id, true
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// List handles GET /events (public: active published events only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListPublic(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// ListAll handles GET /admin/events (admin: every event, archived included).
func (h *Handler) ListAll(c *gin.Context) {
	list, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.repo.GetActive(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Create handles POST /events (admin or organizer).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	eventDate, err := parseDate(req.EventDate)
	if err != nil {
		response.BadRequest(c, "invalid event_date")
		return
	}
	var endDate *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			response.BadRequest(c, "invalid end_date")
			return
		}
		endDate = &t
	}

	eventTime := req.EventTime
	if eventTime == "" {
		eventTime = "00:00:00"
	}

	e := &models.Event{
		Title:           req.Title,
		Description:     req.Description,
		EventDate:       eventDate,
		EventTime:       eventTime,
		EndDate:         endDate,
		EndTime:         req.EndTime,
		Location:        req.Location,
		City:            req.City,
		Province:        req.Province,
		OrganizerName:   req.OrganizerName,
		MaxParticipants: req.MaxParticipants,
		Price:           req.Price,
		IsFree:          req.IsFree || req.Price == 0,
		HasCertificate:  req.HasCertificate,
		Status:          req.Status,
		CreatedBy:       middleware.UserID(c),
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// Update handles PATCH /events/:id (admin).
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	eventDate, err := parseDate(req.EventDate)
	if err != nil {
		response.BadRequest(c, "invalid event_date")
		return
	}
	var endDate *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			response.BadRequest(c, "invalid end_date")
			return
		}
		endDate = &t
	}

	e.Title = req.Title
	e.Description = req.Description
	e.EventDate = eventDate
	if req.EventTime != "" {
		e.EventTime = req.EventTime
	}
	e.EndDate = endDate
	e.EndTime = req.EndTime
	e.Location = req.Location
	e.City = req.City
	e.Province = req.Province
	e.OrganizerName = req.OrganizerName
	e.MaxParticipants = req.MaxParticipants
	e.Price = req.Price
	e.IsFree = req.IsFree || req.Price == 0
	e.HasCertificate = req.HasCertificate
	if req.Status != "" {
		e.Status = req.Status
	}

	if err := h.repo.Update(c.Request.Context(), e); err != nil {
		h.logger.Error("update event failed", zap.Error(err), zap.Int64("event_id", id))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, e)
}

// Highlight handles POST /events/:id/highlight (admin). Only one event may
// be highlighted at a time.
func (h *Handler) Highlight(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.SetHighlighted(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to highlight event")
		return
	}
	response.OK(c, gin.H{"highlighted": id})
}

// Delete handles DELETE /events/:id (admin). Refused while registrations exist.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, ErrHasRegistrations):
			response.Conflict(c, "event has registrations; archive it instead")
		default:
			response.Internal(c, "failed to delete event")
		}
		return
	}
	response.NoContent(c)
}
