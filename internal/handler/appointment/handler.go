package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *appointment.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *appointment.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	appointments := rg.Group("/appointments")
	appointments.Use(h.auth.Authenticate())
	{
		appointments.POST("", h.auth.RequireRole(model.RolePatient), h.Book)
		appointments.GET("", h.auth.RequireRole(model.RolePatient), h.ListMine)
		appointments.GET("/schedule", h.auth.RequireRole(model.RoleDoctor), h.ListSchedule)
		appointments.PUT("/:id", h.auth.RequireRole(model.RolePatient), h.Update)
		appointments.DELETE("/:id", h.auth.RequireRole(model.RolePatient), h.Cancel)
		appointments.PATCH("/:id/status", h.auth.RequireRole(model.RoleDoctor, model.RoleAdmin), h.ChangeStatus)
	}
}

func (h *Handler) Book(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing authentication"})
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	apt, err := h.service.Book(c.Request.Context(), subject, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": apt})
}

func (h *Handler) Update(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing authentication"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	apt, err := h.service.Update(c.Request.Context(), subject, id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": apt})
}

func (h *Handler) Cancel(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing authentication"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), subject, id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "appointment cancelled"})
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req struct {
		Status model.AppointmentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := h.service.ChangeStatus(c.Request.Context(), id, req.Status); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "appointment status updated"})
}

// ListSchedule returns the requesting doctor's appointments for a day,
// optionally narrowed to a patient-name substring.
func (h *Handler) ListSchedule(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing authentication"})
		return
	}

	date, err := parseDate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid date, use YYYY-MM-DD"})
		return
	}

	appointments, err := h.service.ListForDoctor(c.Request.Context(), subject.ID, date, c.Query("patient_name"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": appointments})
}

// ListMine returns the requesting patient's appointments, filterable by
// condition ("past"/"future") and doctor-name substring.
func (h *Handler) ListMine(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing authentication"})
		return
	}

	condition := model.AppointmentCondition(c.Query("condition"))

	appointments, err := h.service.ListForPatient(c.Request.Context(), subject.ID, condition, c.Query("doctor_name"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": appointments})
}

// parseDate reads the "date" query parameter, defaulting to today (UTC).
func parseDate(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(dateLayout, raw)
}
