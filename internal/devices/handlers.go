package devices

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/internal/validation"
	"github.com/HerbHall/pppmirror/pkg/models"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an RFC 7807 problem detail response.
func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:     "https://pppmirror.dev/problems/" + problemSlug(status),
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

func problemSlug(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad-request"
	case http.StatusNotFound:
		return "not-found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal-error"
	}
}

// CreateDeviceRequest is the request body for POST /devices/.
type CreateDeviceRequest struct {
	Name     string `json:"name" validate:"required,max=64" example:"pop-north"`
	Address  string `json:"address" validate:"required,hostname_rfc1123|ip" example:"10.10.0.1"`
	Port     int    `json:"port" validate:"min=0,max=65535" example:"8728"`
	Username string `json:"username" validate:"required" example:"api-sync"`
	Password string `json:"password" example:"s3cret"` //nolint:gosec // G101: request field
}

// handleList returns every registered device.
//
//	@Summary		List devices
//	@Description	Returns all registered RouterOS devices. Passwords are never included.
//	@Tags			devices
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		models.Device
//	@Failure		500	{object}	models.APIProblem
//	@Router			/devices/ [get]
func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "device store not configured")
		return
	}
	list, err := m.store.List(r.Context())
	if err != nil {
		m.logger.Error("failed to list devices", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to list devices")
		return
	}
	if list == nil {
		list = []models.Device{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreate registers a device.
//
//	@Summary		Create device
//	@Description	Registers a RouterOS device and its API credentials.
//	@Tags			devices
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateDeviceRequest	true	"Device"
//	@Success		201		{object}	models.Device
//	@Failure		400		{object}	models.APIProblem
//	@Failure		409		{object}	models.APIProblem
//	@Failure		500		{object}	models.APIProblem
//	@Router			/devices/ [post]
func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "device store not configured")
		return
	}

	var req CreateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Port == 0 {
		req.Port = m.cfg.DefaultPort
	}

	d := &models.Device{
		Name:     req.Name,
		Address:  req.Address,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
	}
	if err := m.store.Create(r.Context(), d); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		m.logger.Error("failed to create device", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to create device")
		return
	}

	m.logger.Info("device registered",
		zap.String("device_id", d.ID),
		zap.String("name", d.Name),
		zap.String("address", d.Address),
	)
	m.publish(r.Context(), TopicDeviceCreated, DeviceEvent{DeviceID: d.ID, Name: d.Name})
	writeJSON(w, http.StatusCreated, d)
}

// handleGet returns one device.
//
//	@Summary		Get device
//	@Tags			devices
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Device ID"
//	@Success		200	{object}	models.Device
//	@Failure		404	{object}	models.APIProblem
//	@Failure		500	{object}	models.APIProblem
//	@Router			/devices/{id} [get]
func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "device store not configured")
		return
	}
	d, err := m.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "device not found")
		return
	}
	if err != nil {
		m.logger.Error("failed to get device", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to get device")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDelete removes a device.
//
//	@Summary		Delete device
//	@Tags			devices
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Device ID"
//	@Success		204
//	@Failure		404	{object}	models.APIProblem
//	@Failure		500	{object}	models.APIProblem
//	@Router			/devices/{id} [delete]
func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "device store not configured")
		return
	}
	id := r.PathValue("id")
	err := m.store.Delete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "device not found")
		return
	}
	if err != nil {
		m.logger.Error("failed to delete device", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to delete device")
		return
	}
	m.publish(r.Context(), TopicDeviceDeleted, DeviceEvent{DeviceID: id})
	w.WriteHeader(http.StatusNoContent)
}
