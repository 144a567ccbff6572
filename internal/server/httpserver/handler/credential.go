package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// maxVerifyBody caps the verify request body.
const maxVerifyBody = 4 << 10

// handleVerifyCredential handles POST /admin/v1/credentials/verify.
//
// Unknown and expired tokens answer 200 with valid=false.
func (h *Handler) handleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	var req VerifyCredentialRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVerifyBody)).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "invalid request body", nil)
		return
	}

	cred, err := h.verifier.Verify(r.Context(), req.Token)
	switch {
	case err == nil:
		h.writeJSON(w, r, http.StatusOK, VerifyCredentialResponse{
			Valid:        true,
			CredentialID: cred.ID,
			Partition:    cred.Partition,
			UserID:       cred.UserID,
			ExpiresAt:    cred.ExpiresAt,
		})
	case domain.IsDomainError(err, domain.ErrCredentialInvalid.Code),
		domain.IsDomainError(err, domain.ErrCredentialExpired.Code):
		h.writeJSON(w, r, http.StatusOK, VerifyCredentialResponse{
			Valid:   false,
			Message: err.Error(),
		})
	default:
		h.handleServiceError(w, r, err)
	}
}
