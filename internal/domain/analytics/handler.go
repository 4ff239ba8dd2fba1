package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	adminGroup := g.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/analytics/adherence/overview", h.GetOverview)
	adminGroup.GET("/analytics/adherence/trends", h.GetTrends)
	adminGroup.GET("/analytics/adherence/patients", h.GetPatientSummaries)
	adminGroup.GET("/analytics/adherence/medications", h.GetMedicationSummaries)
	adminGroup.GET("/analytics/patients/demographics", h.GetDemographics)
	adminGroup.GET("/analytics/medications/usage-stats", h.GetMedicationUsage)
}

func dateParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+", expected YYYY-MM-DD")
	}
	return &t, nil
}

func (h *Handler) GetOverview(c echo.Context) error {
	start, err := dateParam(c, "start_date")
	if err != nil {
		return err
	}
	end, err := dateParam(c, "end_date")
	if err != nil {
		return err
	}
	o, err := h.svc.Overview(c.Request().Context(), start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) GetTrends(c echo.Context) error {
	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		days = n
	}

	var patientID *uuid.UUID
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		patientID = &id
	}

	points, err := h.svc.Trends(c.Request().Context(), days, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, points)
}

func (h *Handler) GetPatientSummaries(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	minAdherence := 0.0
	if raw := c.QueryParam("min_adherence"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid min_adherence")
		}
		minAdherence = f
	}

	summaries, err := h.svc.PatientSummaries(c.Request().Context(), limit, minAdherence)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *Handler) GetMedicationSummaries(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	var medicationID *uuid.UUID
	if raw := c.QueryParam("medication_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid medication_id")
		}
		medicationID = &id
	}

	summaries, err := h.svc.MedicationSummaries(c.Request().Context(), medicationID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *Handler) GetDemographics(c echo.Context) error {
	d, err := h.svc.Demographics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetMedicationUsage(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	usage, err := h.svc.MedicationUsage(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, usage)
}
