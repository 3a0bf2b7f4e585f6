package payments

import (
	"net/http"

	"e-courier/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler exposes the admin read surface over payment rows. Writes go
// through the shipment lifecycle only.
type Handler struct {
	repo RepositoryInterface
}

func NewHandler(repo RepositoryInterface) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)
	payments, err := h.repo.List(c.Request().Context(), limit, (page-1)*limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, payments)
}

func (h *Handler) Get(c echo.Context) error {
	payment, err := h.repo.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, payment)
}
