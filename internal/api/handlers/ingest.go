package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/greenledger/produce-costing-backend/internal/adapters/spreadsheet"
	"github.com/greenledger/produce-costing-backend/internal/api/dto"
	"github.com/greenledger/produce-costing-backend/internal/application/service"
	"github.com/greenledger/produce-costing-backend/internal/domain/ingest"
)

// maxUploadBytes caps spreadsheet uploads at 20 MB.
const maxUploadBytes = 20 << 20

// IngestHandler handles spreadsheet upload requests.
type IngestHandler struct {
	*Base
	ingest *service.IngestService
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{
		Base:   &Base{},
		ingest: ingestService,
	}
}

// Sales handles POST /api/ingest/sales - multipart upload of a sales
// ledger. Form fields: file (required), period (required unless
// merge_periods is set), merge_periods.
func (h *IngestHandler) Sales(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.uploadedFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	period := r.FormValue("period")
	mergePeriods := r.FormValue("merge_periods") == "true" || r.FormValue("merge_periods") == "1"
	if period == "" && !mergePeriods {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("period is required unless merge_periods is set"))
		return
	}

	result, err := h.ingest.IngestSales(file, filename, period, mergePeriods)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// PnL handles POST /api/ingest/pnl - multipart upload of a profit & loss
// statement. Form fields: file (required), period (required).
func (h *IngestHandler) PnL(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.uploadedFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	period := r.FormValue("period")
	if period == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("period is required"))
		return
	}

	result, err := h.ingest.IngestPnL(file, filename, period)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// uploadedFile extracts the "file" part from a multipart request.
func (h *IngestHandler) uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid multipart form"))
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("file is required"))
		return nil, "", false
	}
	return file, header.Filename, true
}

// writeIngestError maps structural ingest failures to 422 and everything
// else to 500.
func (h *IngestHandler) writeIngestError(w http.ResponseWriter, err error) {
	var missing *ingest.MissingColumnsError
	if errors.As(err, &missing) {
		h.WriteError(w, http.StatusUnprocessableEntity,
			dto.ValidationError(missing.Error(), missing.Missing))
		return
	}
	if errors.Is(err, spreadsheet.ErrUnsupportedType) {
		h.WriteError(w, http.StatusUnprocessableEntity, dto.ValidationError(err.Error(), nil))
		return
	}
	h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
}
