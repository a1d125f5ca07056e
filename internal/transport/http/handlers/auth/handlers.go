package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"staffcore/internal/auth"
	"staffcore/internal/domain/audit"
	"staffcore/internal/domain/directory"
	cryptoutil "staffcore/internal/platform/crypto"
	"staffcore/internal/requestctx"
	"staffcore/internal/transport/http/api"
	"staffcore/internal/transport/http/middleware"
	"staffcore/internal/transport/http/shared"
)

const tokenTTL = 8 * time.Hour

type Handler struct {
	Store  *directory.Store
	Audit  *audit.Service
	Secret string
	Crypto *cryptoutil.Service
}

func NewHandler(store *directory.Store, auditSvc *audit.Service, secret string, crypto *cryptoutil.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc, Secret: secret, Crypto: crypto}
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

// HandleRegister files an admin registration. The account stays unusable
// until a super admin verifies it.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	if len(payload.Password) < 10 {
		v.Add("password", "must be at least 10 characters")
	}
	if v.Respond(w, requestID) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.ServerError(w, requestID)
		return
	}

	admin, err := h.Store.RegisterAdmin(r.Context(),
		strings.ToLower(strings.TrimSpace(payload.Email)),
		strings.TrimSpace(payload.FirstName),
		strings.TrimSpace(payload.LastName),
		hash, auth.RoleAdmin)
	if errors.Is(err, directory.ErrDuplicate) {
		api.Fail(w, http.StatusConflict, "already_registered", "an admin account already exists for this email", requestID)
		return
	}
	if err != nil {
		slog.Error("admin registration failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	api.Created(w, admin, requestID)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	admin, err := h.Store.AdminByEmail(r.Context(), strings.ToLower(strings.TrimSpace(payload.Email)))
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if !admin.Verified {
		api.Fail(w, http.StatusUnauthorized, "not_verified", "account pending verification", requestID)
		return
	}
	if err := auth.CheckPassword(admin.PasswordHash, payload.Password); err != nil {
		h.Audit.Incident(r.Context(), audit.SeverityLow, "failed login for "+admin.Email, admin.ID)
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	mfaVerified := false
	if len(admin.TOTPSecret) > 0 {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
			return
		}
		secret, err := h.totpSecret(admin.TOTPSecret)
		if err != nil || !totp.Validate(payload.MFACode, secret) {
			h.Audit.Incident(r.Context(), audit.SeverityMedium, "invalid mfa code for "+admin.Email, admin.ID)
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
			return
		}
		mfaVerified = true
		if err := h.Store.RecordTwoFactorVerification(r.Context(), admin.ID); err != nil {
			slog.Warn("record 2fa verification failed", "adminId", admin.ID, "err", err)
		}
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		AdminID:     admin.ID,
		Email:       admin.Email,
		Role:        admin.Role,
		MFAVerified: mfaVerified,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), admin.ID, admin.Role, "login", "admin signed in"); err != nil {
		slog.Warn("audit login failed", "adminId", admin.ID, "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"admin": map[string]any{
			"id":          admin.ID,
			"email":       admin.Email,
			"role":        admin.Role,
			"mfaVerified": mfaVerified,
		},
	}, requestID)
}

// HandleMFASetup issues a fresh TOTP secret for the caller. The secret is
// stored encrypted and replaces any previous one.
func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	caller, ok := middleware.GetAdmin(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "staffcore",
		AccountName: caller.Email,
	})
	if err != nil {
		api.ServerError(w, requestID)
		return
	}

	encrypted, err := h.Crypto.EncryptString(key.Secret())
	if err != nil {
		api.ServerError(w, requestID)
		return
	}
	if err := h.Store.SetTOTPSecret(r.Context(), caller.AdminID, encrypted); err != nil {
		slog.Error("store totp secret failed", "adminId", caller.AdminID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	api.Success(w, map[string]string{
		"secret": key.Secret(),
		"url":    key.URL(),
	}, requestID)
}

// HandleMFAVerify checks a code against the stored secret and reissues a
// token with the verified flag set.
func (h *Handler) HandleMFAVerify(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	caller, ok := middleware.GetAdmin(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Code == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "mfa code is required", requestID)
		return
	}

	admin, err := h.Store.AdminByID(r.Context(), caller.AdminID)
	if err != nil || len(admin.TOTPSecret) == 0 {
		api.Fail(w, http.StatusBadRequest, "mfa_not_configured", "mfa is not configured", requestID)
		return
	}

	secret, err := h.totpSecret(admin.TOTPSecret)
	if err != nil || !totp.Validate(payload.Code, secret) {
		h.Audit.Incident(r.Context(), audit.SeverityMedium, "invalid mfa code for "+admin.Email, admin.ID)
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
		return
	}

	if err := h.Store.RecordTwoFactorVerification(r.Context(), admin.ID); err != nil {
		slog.Warn("record 2fa verification failed", "adminId", admin.ID, "err", err)
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		AdminID:     admin.ID,
		Email:       admin.Email,
		Role:        admin.Role,
		MFAVerified: true,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	api.Success(w, map[string]string{"token": token}, requestID)
}

func (h *Handler) totpSecret(stored []byte) (string, error) {
	if h.Crypto != nil && h.Crypto.Configured() {
		return h.Crypto.DecryptString(stored)
	}
	return string(stored), nil
}
