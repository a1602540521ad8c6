package ppp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/internal/validation"
)

// Response is the envelope every /ppp route answers with. The HTTP status is
// always 200; Success tells the caller whether the operation ran.
type Response struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data,omitempty"`
	Error        string `json:"error,omitempty"`
	Kind         Kind   `json:"kind,omitempty" swaggertype:"string" example:"connection"`
	Message      string `json:"message,omitempty"`
	Count        *int   `json:"count,omitempty"`
	NewCustomers *int   `json:"new_customers,omitempty"`
}

// DeviceRef is a device id that decodes from a JSON string or number.
type DeviceRef string

// UnmarshalJSON implements json.Unmarshaler.
func (d *DeviceRef) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = DeviceRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("device id must be a string or a number")
	}
	*d = DeviceRef(n.String())
	return nil
}

// DeviceRequest is the body accepted by every /ppp route. mikrotik_id is an
// alias of device_id.
type DeviceRequest struct {
	DeviceID   DeviceRef `json:"device_id" validate:"required_without=MikrotikID" swaggertype:"string" example:"5b0c..."`
	MikrotikID DeviceRef `json:"mikrotik_id,omitempty" swaggertype:"string"`
}

// Device returns the effective device id.
func (r DeviceRequest) Device() string {
	if r.DeviceID != "" {
		return string(r.DeviceID)
	}
	return string(r.MikrotikID)
}

// SecretRequest names one secret on a device.
type SecretRequest struct {
	DeviceRequest
	Name string `json:"name" validate:"required,max=128" example:"alice"`
}

// CreateSecretRequest is the body of /secrets/create.
type CreateSecretRequest struct {
	DeviceRequest
	Name          string `json:"name" validate:"required,max=128" example:"alice"`
	Password      string `json:"password" validate:"required" example:"pppoe-pass"` //nolint:gosec // G101: request field
	Service       string `json:"service,omitempty" validate:"omitempty,oneof=any pppoe pptp l2tp ovpn sstp async" example:"pppoe"`
	Profile       string `json:"profile,omitempty" example:"10M"`
	LocalAddress  string `json:"local_address,omitempty" validate:"omitempty,ip"`
	RemoteAddress string `json:"remote_address,omitempty" validate:"omitempty,ip" example:"10.20.0.15"`
	Comment       string `json:"comment,omitempty" example:"Alice Putri"`
	Disabled      bool   `json:"disabled,omitempty"`
}

// UpdateSecretRequest is the body of /secrets/update. Omitted fields are
// left unchanged.
type UpdateSecretRequest struct {
	DeviceRequest
	Name     string  `json:"name" validate:"required,max=128" example:"alice"`
	Password *string `json:"password,omitempty"` //nolint:gosec // G101: request field
	Profile  *string `json:"profile,omitempty" example:"20M"`
	Disabled *bool   `json:"disabled,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func intPtr(n int) *int { return &n }

// fail renders err as a failed envelope. Store errors are logged and their
// detail withheld from the caller.
func (m *Module) fail(w http.ResponseWriter, err error) {
	resp := Response{Success: false, Kind: KindOf(err), Error: err.Error()}
	switch resp.Kind {
	case KindStore, "":
		m.logger.Error("ppp operation failed", zap.Error(err))
		resp.Error = "internal storage error"
	case KindConnection:
		m.logger.Warn("ppp operation failed", zap.Error(err))
		resp.Message = "device unreachable or login rejected"
	case KindResource:
		m.logger.Warn("ppp operation failed", zap.Error(err))
		resp.Message = "device rejected the command"
	case KindBusy:
		m.logger.Warn("ppp operation gave up waiting for device", zap.Error(err))
		resp.Message = "another operation on this device is still running"
	}
	writeEnvelope(w, resp)
}

// decode reads and validates the request body into req. It writes the
// failure envelope itself and reports whether the handler may continue.
func (m *Module) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeEnvelope(w, Response{Kind: KindInvalid, Error: "invalid JSON body"})
		return false
	}
	if err := validation.Struct(req); err != nil {
		writeEnvelope(w, Response{Kind: KindInvalid, Error: err.Error()})
		return false
	}
	if m.engine == nil {
		writeEnvelope(w, Response{Kind: KindStore, Error: "ppp engine not ready"})
		return false
	}
	return true
}

// handleTestConnection probes a device.
//
//	@Summary		Test device connection
//	@Description	Logs in to the device and reads its identity. Marks the device online on success.
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		DeviceRequest	true	"Device"
//	@Success		200		{object}	Response
//	@Router			/ppp/test-connection [post]
func (m *Module) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !m.decode(w, r, &req) {
		return
	}
	identity, err := m.engine.Probe(r.Context(), req.Device())
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{
		Success: true,
		Data:    map[string]string{"identity": identity},
		Message: "connected to " + identity,
	})
}

// handleProfiles returns the mirrored profiles.
//
//	@Summary		List cached profiles
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		DeviceRequest	true	"Device"
//	@Success		200		{object}	Response{data=[]models.Profile}
//	@Router			/ppp/profiles [post]
func (m *Module) handleProfiles(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !m.decode(w, r, &req) {
		return
	}
	profiles, err := m.engine.ListCachedProfiles(r.Context(), req.Device())
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{Success: true, Data: profiles, Count: intPtr(len(profiles))})
}

// handleSyncProfiles mirrors the device's profiles.
//
//	@Summary		Sync profiles
//	@Description	Replaces the mirrored profiles with the device's current list.
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		DeviceRequest	true	"Device"
//	@Success		200		{object}	Response{data=[]models.Profile}
//	@Router			/ppp/profiles/sync [post]
func (m *Module) handleSyncProfiles(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !m.decode(w, r, &req) {
		return
	}
	profiles, err := m.engine.SyncProfiles(r.Context(), req.Device())
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{
		Success: true,
		Data:    profiles,
		Count:   intPtr(len(profiles)),
		Message: "synced " + strconv.Itoa(len(profiles)) + " profiles",
	})
}

// handleSecrets returns the mirrored secrets.
//
//	@Summary		List cached secrets
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		DeviceRequest	true	"Device"
//	@Success		200		{object}	Response{data=[]models.Secret}
//	@Router			/ppp/secrets [post]
func (m *Module) handleSecrets(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !m.decode(w, r, &req) {
		return
	}
	secrets, err := m.engine.ListCachedSecrets(r.Context(), req.Device())
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{Success: true, Data: secrets, Count: intPtr(len(secrets))})
}

// handleSyncSecrets mirrors the device's secrets and derives customers.
//
//	@Summary		Sync secrets
//	@Description	Replaces the mirrored secrets and creates a customer for every new username.
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		DeviceRequest	true	"Device"
//	@Success		200		{object}	Response{data=[]models.Secret}
//	@Router			/ppp/secrets/sync [post]
func (m *Module) handleSyncSecrets(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !m.decode(w, r, &req) {
		return
	}
	res, err := m.engine.SyncSecrets(r.Context(), req.Device())
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{
		Success:      true,
		Data:         res.Secrets,
		Count:        intPtr(len(res.Secrets)),
		NewCustomers: intPtr(res.NewCustomers),
		Message:      "synced " + strconv.Itoa(len(res.Secrets)) + " secrets",
	})
}

// handleDisableSecret disables a secret and drops its sessions.
//
//	@Summary		Disable secret
//	@Description	Disables the secret on the device, disconnects its active sessions and records the flag.
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		SecretRequest	true	"Secret"
//	@Success		200		{object}	Response{data=ToggleResult}
//	@Router			/ppp/secrets/disable [post]
func (m *Module) handleDisableSecret(w http.ResponseWriter, r *http.Request) {
	m.toggleSecret(w, r, false)
}

// handleEnableSecret enables a secret.
//
//	@Summary		Enable secret
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		SecretRequest	true	"Secret"
//	@Success		200		{object}	Response{data=ToggleResult}
//	@Router			/ppp/secrets/enable [post]
func (m *Module) handleEnableSecret(w http.ResponseWriter, r *http.Request) {
	m.toggleSecret(w, r, true)
}

func (m *Module) toggleSecret(w http.ResponseWriter, r *http.Request, enabled bool) {
	var req SecretRequest
	if !m.decode(w, r, &req) {
		return
	}
	res, err := m.engine.SetSecretEnabled(r.Context(), req.Device(), req.Name, enabled)
	if err != nil {
		m.fail(w, err)
		return
	}
	verb := "enabled"
	if !enabled {
		verb = "disabled"
	}
	writeEnvelope(w, Response{Success: true, Data: res, Message: "secret " + req.Name + " " + verb})
}

// handleCreateSecret adds a secret on the device.
//
//	@Summary		Create secret
//	@Description	Adds the secret on the device, mirrors it and derives its customer.
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateSecretRequest	true	"Secret"
//	@Success		200		{object}	Response{data=SecretWriteResult}
//	@Router			/ppp/secrets/create [post]
func (m *Module) handleCreateSecret(w http.ResponseWriter, r *http.Request) {
	var req CreateSecretRequest
	if !m.decode(w, r, &req) {
		return
	}
	res, err := m.engine.CreateSecret(r.Context(), req.Device(), SecretInput{
		Name:          req.Name,
		Password:      req.Password,
		Service:       req.Service,
		Profile:       req.Profile,
		LocalAddress:  req.LocalAddress,
		RemoteAddress: req.RemoteAddress,
		Comment:       req.Comment,
		Disabled:      req.Disabled,
	})
	if err != nil {
		m.fail(w, err)
		return
	}
	created := 0
	if res.CustomerCreated {
		created = 1
	}
	writeEnvelope(w, Response{Success: true, Data: res, NewCustomers: intPtr(created), Message: "secret " + req.Name + " created"})
}

// handleUpdateSecret patches a secret on the device.
//
//	@Summary		Update secret
//	@Description	Changes password, profile or disabled flag. Disabling also disconnects active sessions.
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		UpdateSecretRequest	true	"Patch"
//	@Success		200		{object}	Response{data=SecretWriteResult}
//	@Router			/ppp/secrets/update [post]
func (m *Module) handleUpdateSecret(w http.ResponseWriter, r *http.Request) {
	var req UpdateSecretRequest
	if !m.decode(w, r, &req) {
		return
	}
	res, err := m.engine.UpdateSecret(r.Context(), req.Device(), req.Name, SecretPatch{
		Password: req.Password,
		Profile:  req.Profile,
		Disabled: req.Disabled,
	})
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{Success: true, Data: res, Message: "secret " + req.Name + " updated"})
}

// handleActive lists live sessions.
//
//	@Summary		List active sessions
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		DeviceRequest	true	"Device"
//	@Success		200		{object}	Response{data=[]models.ActiveSession}
//	@Router			/ppp/active [post]
func (m *Module) handleActive(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !m.decode(w, r, &req) {
		return
	}
	sessions, err := m.engine.ListActiveSessions(r.Context(), req.Device())
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{Success: true, Data: sessions, Count: intPtr(len(sessions))})
}

// handleSystemResources returns identity and resource usage.
//
//	@Summary		Device status
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		DeviceRequest	true	"Device"
//	@Success		200		{object}	Response{data=models.SystemStatus}
//	@Router			/ppp/system/resources [post]
func (m *Module) handleSystemResources(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !m.decode(w, r, &req) {
		return
	}
	status, err := m.engine.StatusSnapshot(r.Context(), req.Device())
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{Success: true, Data: status})
}

// handleCustomers lists the customers derived for a device.
//
//	@Summary		List customers
//	@Tags			ppp
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		DeviceRequest	true	"Device"
//	@Success		200		{object}	Response{data=[]models.Customer}
//	@Router			/ppp/customers [post]
func (m *Module) handleCustomers(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if !m.decode(w, r, &req) {
		return
	}
	customers, err := m.engine.ListCustomers(r.Context(), req.Device())
	if err != nil {
		m.fail(w, err)
		return
	}
	writeEnvelope(w, Response{Success: true, Data: customers, Count: intPtr(len(customers))})
}
