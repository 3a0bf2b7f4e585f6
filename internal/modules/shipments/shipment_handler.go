package shipments

import (
	"net/http"

	"e-courier/internal/models"
	"e-courier/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for the shipment lifecycle.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func actorFrom(c echo.Context) (Actor, error) {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: userID, Role: role}, nil
}

func (h *Handler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req models.CreateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	shipment, err := h.svc.Create(c.Request().Context(), actor, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, shipment)
}

func (h *Handler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req models.UpdateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	shipment, err := h.svc.Update(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipment)
}

func (h *Handler) AssignCourier(c echo.Context) error {
	return h.courierChange(c, false)
}

func (h *Handler) UpdateCourier(c echo.Context) error {
	return h.courierChange(c, true)
}

func (h *Handler) courierChange(c echo.Context, reassign bool) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req models.AssignCourierRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	var shipment *models.Shipment
	if reassign {
		shipment, err = h.svc.UpdateCourier(c.Request().Context(), actor, req)
	} else {
		shipment, err = h.svc.AssignCourier(c.Request().Context(), actor, req)
	}
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipment)
}

func (h *Handler) SetWeight(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req models.SetWeightRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	shipment, err := h.svc.SetWeight(c.Request().Context(), actor, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipment)
}

func (h *Handler) ScanPickup(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req models.ScanPickupRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	shipment, err := h.svc.ScanPickup(c.Request().Context(), actor, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipment)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	shipment, err := h.svc.UpdateStatus(c.Request().Context(), actor, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipment)
}

func (h *Handler) MarkPaid(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req models.MarkPaidRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	shipment, err := h.svc.MarkPaid(c.Request().Context(), actor, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipment)
}

// QRDetails looks a shipment up by its QR token without changing it.
func (h *Handler) QRDetails(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req models.ScanPickupRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	shipment, err := h.svc.QRDetails(c.Request().Context(), actor, req.QRCodeID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipment)
}

func (h *Handler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	shipment, err := h.svc.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipment)
}

func (h *Handler) ListAll(c echo.Context) error {
	shipments, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, shipments)
}

// ListForCustomer returns the caller's shipments grouped as sent and
// received.
func (h *Handler) ListForCustomer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	grouped, err := h.svc.CustomerShipments(c.Request().Context(), actor.ID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, grouped)
}

// ListForCourier returns the caller's assignments grouped by leg.
func (h *Handler) ListForCourier(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	grouped, err := h.svc.CourierShipments(c.Request().Context(), actor.ID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, grouped)
}

func (h *Handler) Logs(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	logs, err := h.svc.Logs(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, logs)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithMessage(c, http.StatusOK, "Shipment deleted successfully")
}
