package adherence

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack/internal/platform/auth"
	"github.com/meditrack/meditrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	// Self-service, patient role
	selfGroup := g.Group("", auth.RequireRole(auth.RolePatient))
	selfGroup.GET("/adherence/stats", h.GetStats)
	selfGroup.GET("/adherence/chart", h.GetChart)
	selfGroup.GET("/adherence/dashboard", h.GetDashboard)
	selfGroup.GET("/adherence/logs", h.ListLogs)
	selfGroup.POST("/adherence/logs", h.CreateLog)
	selfGroup.PUT("/adherence/logs/:id", h.UpdateLog)
	selfGroup.DELETE("/adherence/logs/:id", h.DeleteLog)

	// Admin views of any patient
	adminGroup := g.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/adherence/patients/:id/stats", h.GetPatientStats)
	adminGroup.GET("/adherence/patients/:id/dashboard", h.GetPatientDashboard)
	adminGroup.GET("/adherence/patients/:id/logs", h.ListPatientLogs)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not your medication log")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func sessionPatientID(c echo.Context) (uuid.UUID, error) {
	id := auth.PatientIDFromContext(c.Request().Context())
	if id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "no patient profile")
	}
	return id, nil
}

// optionalUUID parses an optional uuid query parameter.
func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func intParam(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// -- Self-service --

func (h *Handler) GetStats(c echo.Context) error {
	patientID, err := sessionPatientID(c)
	if err != nil {
		return err
	}
	return h.renderStats(c, patientID)
}

func (h *Handler) GetChart(c echo.Context) error {
	patientID, err := sessionPatientID(c)
	if err != nil {
		return err
	}
	return h.renderChart(c, patientID)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	patientID, err := sessionPatientID(c)
	if err != nil {
		return err
	}
	return h.renderDashboard(c, patientID)
}

func (h *Handler) ListLogs(c echo.Context) error {
	patientID, err := sessionPatientID(c)
	if err != nil {
		return err
	}
	return h.renderLogs(c, patientID)
}

func (h *Handler) CreateLog(c echo.Context) error {
	patientID, err := sessionPatientID(c)
	if err != nil {
		return err
	}
	var req CreateLogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.CreateLog(c.Request().Context(), patientID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) UpdateLog(c echo.Context) error {
	patientID, err := sessionPatientID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req UpdateLogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.UpdateLog(c.Request().Context(), patientID, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) DeleteLog(c echo.Context) error {
	patientID, err := sessionPatientID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteLog(c.Request().Context(), patientID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Admin --

func (h *Handler) GetPatientStats(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return h.renderStats(c, patientID)
}

func (h *Handler) GetPatientDashboard(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return h.renderDashboard(c, patientID)
}

func (h *Handler) ListPatientLogs(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return h.renderLogs(c, patientID)
}

// -- Shared rendering --

func (h *Handler) renderStats(c echo.Context, patientID uuid.UUID) error {
	period, err := ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	medID, err := optionalUUID(c, "patient_medication_id")
	if err != nil {
		return err
	}
	st, err := h.svc.Stats(c.Request().Context(), patientID, period, medID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) renderChart(c echo.Context, patientID uuid.UUID) error {
	medID, err := optionalUUID(c, "patient_medication_id")
	if err != nil {
		return err
	}
	points, err := h.svc.Chart(c.Request().Context(), patientID, intParam(c, "days", DefaultChartDays), medID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, points)
}

func (h *Handler) renderDashboard(c echo.Context, patientID uuid.UUID) error {
	medID, err := optionalUUID(c, "patient_medication_id")
	if err != nil {
		return err
	}
	d, err := h.svc.Dashboard(c.Request().Context(), patientID,
		intParam(c, "days", DefaultChartDays), intParam(c, "recent", DefaultRecentN), medID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) renderLogs(c echo.Context, patientID uuid.UUID) error {
	medID, err := optionalUUID(c, "patient_medication_id")
	if err != nil {
		return err
	}

	f := LogFilter{PatientID: patientID, PatientMedicationID: medID}
	if raw := c.QueryParam("status"); raw != "" {
		st := LogStatus(raw)
		if !st.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = &st
	}
	if raw := c.QueryParam("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		}
		f.Start = &t
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		}
		end := t.AddDate(0, 0, 1) // inclusive end date, half-open window
		f.End = &end
	}

	pg := pagination.FromContext(c)
	f.Limit = pg.Limit
	f.Offset = pg.Offset

	logs, total, err := h.svc.QueryLogs(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if logs == nil {
		logs = []*MedicationLog{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(logs, total, pg.Limit, pg.Offset))
}
