package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"inheritx/internal/audit"
	"inheritx/internal/platform/middleware"
	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
	dErrors "inheritx/pkg/domain-errors"
	"inheritx/pkg/platform/httputil"
	"inheritx/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	AddTokenBeneficiary(ctx context.Context, caller, recipient id.Address, share uint256.Int) (*models.Beneficiary, error)
	AddNFTBeneficiary(ctx context.Context, caller, recipient id.Address, assetID uint256.Int) (*models.Beneficiary, error)
	AddMultiTokenBeneficiary(ctx context.Context, caller, recipient id.Address, assetID, amount uint256.Int) (*models.Beneficiary, error)
	RemoveBeneficiary(ctx context.Context, caller, recipient id.Address) error
	VerifyBeneficiary(ctx context.Context, caller, recipient id.Address) (*models.Beneficiary, error)
	SetEncryptedWill(ctx context.Context, caller id.Address, pointer string) error
	ConfirmDeath(ctx context.Context, caller id.Address) (*models.Snapshot, error)

	GetBeneficiaryStatus(ctx context.Context, recipient id.Address) (bool, error)
	GetBeneficiaryType(ctx context.Context, recipient id.Address) (models.Variant, error)
	GetBeneficiaryShare(ctx context.Context, recipient id.Address) (uint256.Int, error)
	GetBeneficiaryTokenID(ctx context.Context, recipient id.Address) (uint256.Int, error)
	GetBeneficiaryAmount(ctx context.Context, recipient id.Address) (uint256.Int, error)
	GetBeneficiary(ctx context.Context, recipient id.Address) (*models.Beneficiary, error)
	ListBeneficiaries(ctx context.Context) ([]*models.Beneficiary, error)
	GetEncryptedWill(ctx context.Context) (string, error)
	IsDeathConfirmed(ctx context.Context) (bool, error)
	Snapshot(ctx context.Context) (*models.Snapshot, error)
	AuditTrail(ctx context.Context) ([]audit.Event, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.JWTValidator
}

// New constructs a registry handler. validator guards the mutating routes.
func New(service Service, logger *slog.Logger, validator middleware.JWTValidator) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts registry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/beneficiaries", h.HandleListBeneficiaries)
	r.Get("/beneficiaries/{recipient}", h.HandleGetBeneficiary)
	r.Get("/beneficiaries/{recipient}/status", h.HandleGetStatus)
	r.Get("/beneficiaries/{recipient}/type", h.HandleGetType)
	r.Get("/beneficiaries/{recipient}/share", h.valueHandler("get beneficiary share", Service.GetBeneficiaryShare))
	r.Get("/beneficiaries/{recipient}/token-id", h.valueHandler("get beneficiary token id", Service.GetBeneficiaryTokenID))
	r.Get("/beneficiaries/{recipient}/amount", h.valueHandler("get beneficiary amount", Service.GetBeneficiaryAmount))
	r.Get("/will", h.HandleGetWill)
	r.Get("/death-confirmation", h.HandleGetDeathConfirmation)
	r.Get("/snapshot", h.HandleSnapshot)
	r.Get("/audit", h.HandleAuditTrail)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/beneficiaries/token", h.HandleAddToken)
		r.Post("/beneficiaries/nft", h.HandleAddNFT)
		r.Post("/beneficiaries/multi-token", h.HandleAddMultiToken)
		r.Delete("/beneficiaries/{recipient}", h.HandleRemoveBeneficiary)
		r.Post("/beneficiaries/{recipient}/verify", h.HandleVerifyBeneficiary)
		r.Put("/will", h.HandleSetWill)
		r.Post("/death-confirmation", h.HandleConfirmDeath)
	})
}

// HandleAddToken handles POST /beneficiaries/token.
func (h *Handler) HandleAddToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AddTokenRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.service.AddTokenBeneficiary(ctx, requestcontext.Caller(ctx), req.recipient, req.share)
	h.respondBeneficiary(w, r, "add token beneficiary", b, err, http.StatusCreated)
}

// HandleAddNFT handles POST /beneficiaries/nft.
func (h *Handler) HandleAddNFT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AddNFTRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.service.AddNFTBeneficiary(ctx, requestcontext.Caller(ctx), req.recipient, req.assetID)
	h.respondBeneficiary(w, r, "add nft beneficiary", b, err, http.StatusCreated)
}

// HandleAddMultiToken handles POST /beneficiaries/multi-token.
func (h *Handler) HandleAddMultiToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AddMultiTokenRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.service.AddMultiTokenBeneficiary(ctx, requestcontext.Caller(ctx), req.recipient, req.assetID, req.amount)
	h.respondBeneficiary(w, r, "add multi-token beneficiary", b, err, http.StatusCreated)
}

// HandleRemoveBeneficiary handles DELETE /beneficiaries/{recipient}.
func (h *Handler) HandleRemoveBeneficiary(w http.ResponseWriter, r *http.Request) {
	recipient, ok := h.recipientParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.service.RemoveBeneficiary(ctx, requestcontext.Caller(ctx), recipient); err != nil {
		h.writeError(w, r, "remove beneficiary", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyBeneficiary handles POST /beneficiaries/{recipient}/verify.
func (h *Handler) HandleVerifyBeneficiary(w http.ResponseWriter, r *http.Request) {
	recipient, ok := h.recipientParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	b, err := h.service.VerifyBeneficiary(ctx, requestcontext.Caller(ctx), recipient)
	h.respondBeneficiary(w, r, "verify beneficiary", b, err, http.StatusOK)
}

// HandleSetWill handles PUT /will.
func (h *Handler) HandleSetWill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetWillRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.SetEncryptedWill(ctx, requestcontext.Caller(ctx), *req.Pointer); err != nil {
		h.writeError(w, r, "set encrypted will", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WillResponse{Pointer: *req.Pointer})
}

// HandleConfirmDeath handles POST /death-confirmation and returns the final snapshot.
func (h *Handler) HandleConfirmDeath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	snapshot, err := h.service.ConfirmDeath(ctx, requestcontext.Caller(ctx))
	if err != nil {
		h.writeError(w, r, "confirm death", err)
		return
	}
	h.logger.InfoContext(ctx, "death confirmed",
		"request_id", requestcontext.RequestID(ctx),
		"digest", snapshot.Digest,
		"beneficiaries", len(snapshot.Beneficiaries),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snapshot))
}

// HandleListBeneficiaries handles GET /beneficiaries.
func (h *Handler) HandleListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListBeneficiaries(r.Context())
	if err != nil {
		h.writeError(w, r, "list beneficiaries", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBeneficiaries(list))
}

// HandleGetBeneficiary handles GET /beneficiaries/{recipient}.
func (h *Handler) HandleGetBeneficiary(w http.ResponseWriter, r *http.Request) {
	recipient, ok := h.recipientParam(w, r)
	if !ok {
		return
	}
	b, err := h.service.GetBeneficiary(r.Context(), recipient)
	h.respondBeneficiary(w, r, "get beneficiary", b, err, http.StatusOK)
}

// HandleGetStatus handles GET /beneficiaries/{recipient}/status.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	recipient, ok := h.recipientParam(w, r)
	if !ok {
		return
	}
	exists, err := h.service.GetBeneficiaryStatus(r.Context(), recipient)
	if err != nil {
		h.writeError(w, r, "get beneficiary status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Recipient: recipient.String(), Exists: exists})
}

// HandleGetType handles GET /beneficiaries/{recipient}/type.
func (h *Handler) HandleGetType(w http.ResponseWriter, r *http.Request) {
	recipient, ok := h.recipientParam(w, r)
	if !ok {
		return
	}
	variant, err := h.service.GetBeneficiaryType(r.Context(), recipient)
	if err != nil {
		h.writeError(w, r, "get beneficiary type", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TypeResponse{Recipient: recipient.String(), Type: variant.String()})
}

// valueHandler serves one variant accessor. get is a method expression on
// Service, resolved per request.
func (h *Handler) valueHandler(operation string, get func(Service, context.Context, id.Address) (uint256.Int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipient, ok := h.recipientParam(w, r)
		if !ok {
			return
		}
		v, err := get(h.service, r.Context(), recipient)
		if err != nil {
			h.writeError(w, r, operation, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, ValueResponse{Recipient: recipient.String(), Value: v.Dec()})
	}
}

// HandleGetWill handles GET /will.
func (h *Handler) HandleGetWill(w http.ResponseWriter, r *http.Request) {
	pointer, err := h.service.GetEncryptedWill(r.Context())
	if err != nil {
		h.writeError(w, r, "get encrypted will", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WillResponse{Pointer: pointer})
}

// HandleGetDeathConfirmation handles GET /death-confirmation.
func (h *Handler) HandleGetDeathConfirmation(w http.ResponseWriter, r *http.Request) {
	confirmed, err := h.service.IsDeathConfirmed(r.Context())
	if err != nil {
		h.writeError(w, r, "is death confirmed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DeathConfirmationResponse{Confirmed: confirmed})
}

// HandleSnapshot handles GET /snapshot.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, "snapshot", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snapshot))
}

// HandleAuditTrail handles GET /audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.AuditTrail(r.Context())
	if err != nil {
		h.writeError(w, r, "audit trail", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditEvents(events))
}

func (h *Handler) recipientParam(w http.ResponseWriter, r *http.Request) (id.Address, bool) {
	recipient, err := id.ParseAddress(chi.URLParam(r, "recipient"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.Address{}, false
	}
	return recipient, true
}

func (h *Handler) respondBeneficiary(w http.ResponseWriter, r *http.Request, operation string, b *models.Beneficiary, err error, status int) {
	if err != nil {
		h.writeError(w, r, operation, err)
		return
	}
	httputil.WriteJSON(w, status, FromBeneficiary(b))
}

// writeError logs rejections at WARN and failures at ERROR, then writes the
// envelope with the rejection kind as the reason.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	ctx := r.Context()
	kind := models.ErrorKind(err)
	if kind != "" {
		h.logger.WarnContext(ctx, operation+" rejected",
			"reason", kind,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.ErrorContext(ctx, operation+" failed",
			"error", err,
			"code", dErrors.CodeOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteErrorReason(w, err, kind)
}
