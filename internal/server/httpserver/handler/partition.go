package handler

import (
	"errors"
	"net/http"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// handleListPartitions handles GET /admin/v1/partitions.
func (h *Handler) handleListPartitions(w http.ResponseWriter, r *http.Request) {
	parts, err := h.logs.List()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if parts == nil {
		parts = []domain.PartitionID{}
	}
	h.writeJSON(w, r, http.StatusOK, ListPartitionsResponse{Partitions: parts})
}

// handleDumpLog handles GET /admin/v1/partitions/{id}/log.
func (h *Handler) handleDumpLog(w http.ResponseWriter, r *http.Request) {
	p, ok := h.partitionParam(w, r)
	if !ok {
		return
	}

	records, err := h.logs.Load(p)
	corrupted := errors.Is(err, domain.ErrLogCorruption)
	if err != nil && !corrupted {
		h.handleServiceError(w, r, err)
		return
	}
	if corrupted {
		h.logger.WarnContext(r.Context(), "serving truncated partition log",
			"partition", p.String(), "records", len(records))
	}

	resp := LogResponse{
		Partition: p,
		Records:   make([]RecordResponse, 0, len(records)),
		Corrupted: corrupted,
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, RecordResponse{Time: rec.Time, Payload: rec.Payload})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleUnload handles POST /admin/v1/partitions/{id}/unload.
func (h *Handler) handleUnload(w http.ResponseWriter, r *http.Request) {
	p, ok := h.partitionParam(w, r)
	if !ok {
		return
	}
	h.logs.Unload(p)
	h.writeJSON(w, r, http.StatusOK, map[string]string{"partition": p.String()})
}

// handleFork handles POST /admin/v1/partitions/{id}/fork.
//
// The source's append handle is released before the fork reads its log.
func (h *Handler) handleFork(w http.ResponseWriter, r *http.Request) {
	src, ok := h.partitionParam(w, r)
	if !ok {
		return
	}
	h.logs.Unload(src)

	res, err := h.forker.Fork(r.Context(), src)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp := ForkResponse{
		Source:    res.Source,
		Partition: res.Partition,
		Entries:   make([]ForkEntryResponse, 0, len(res.Entries)),
	}
	for _, e := range res.Entries {
		resp.Entries = append(resp.Entries, ForkEntryResponse{
			UserID:       e.Identity.ID,
			CredentialID: e.Credential.ID,
			JoinURL:      e.JoinURL,
		})
	}
	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, ForkFailureResponse{
			UserID: f.Identity.ID,
			Code:   domain.GetErrorCode(f.Err),
			Error:  f.Err.Error(),
		})
	}
	h.writeJSON(w, r, http.StatusCreated, resp)
}
