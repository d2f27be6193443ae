package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/logger"
	"github.com/teamaster/core/internal/ports"
)

// TeaHandler handles tea-related requests
type TeaHandler struct {
	teaService ports.TeaService
	logger     *logger.Logger
}

// NewTeaHandler creates a new tea handler
func NewTeaHandler(teaService ports.TeaService, logger *logger.Logger) *TeaHandler {
	return &TeaHandler{
		teaService: teaService,
		logger:     logger,
	}
}

// AddTea godoc
// @Summary      Create or update a tea
// @Description  Creates a tea, or replaces the description of the tea with the same name
// @Tags         teas
// @Accept       json
// @Produce      json
// @Param        tea  body      ports.AddTeaRequest  true  "Tea to upsert"
// @Success      200  {object}  ports.AddTeaResult
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ports.AddTeaResult
// @Failure      500  {object}  ports.AddTeaResult
// @Security     BearerAuth
// @Router       /api/v1/teas [post]
func (h *TeaHandler) AddTea(c echo.Context) error {
	var req ports.AddTeaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result := h.teaService.AddTea(c.Request().Context(), req)
	return c.JSON(statusForResult(result), result)
}

// GetTea godoc
// @Summary      Get a tea by name
// @Tags         teas
// @Produce      json
// @Param        name  path      string  true  "Exact tea name"
// @Success      200   {object}  entities.Tea
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/v1/teas/{name} [get]
func (h *TeaHandler) GetTea(c echo.Context) error {
	name, err := pathParam(c, "name")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid tea name")
	}

	tea, err := h.teaService.GetTea(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, entities.ErrTeaNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Tea not found")
		}
		h.logger.Errorw("Get tea failed", "error", err, "name", name)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve tea").SetInternal(err)
	}

	return c.JSON(http.StatusOK, tea)
}

// ListTeas godoc
// @Summary      List teas
// @Tags         teas
// @Produce      json
// @Success      200  {object}  ListResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/v1/teas [get]
func (h *TeaHandler) ListTeas(c echo.Context) error {
	teas, err := h.teaService.ListTeas(c.Request().Context())
	if err != nil {
		h.logger.Errorw("List teas failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve teas").SetInternal(err)
	}

	return c.JSON(http.StatusOK, ListResponse{Data: teas, Total: len(teas)})
}

// pathParam returns the decoded path parameter. Echo routes on the raw path
// when the request escapes a slash, leaving params escaped.
func pathParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}

func statusForResult(result ports.AddTeaResult) int {
	if result.Success {
		return http.StatusOK
	}

	switch result.ErrorKind {
	case ports.ErrorKindNameConflict, ports.ErrorKindIDConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Request/Response types

type ErrorResponse struct {
	Message string `json:"message"`
}

type ListResponse struct {
	Data  []entities.Tea `json:"data"`
	Total int            `json:"total"`
}
