package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/tradevault/backend/src/config"
	"github.com/username/tradevault/backend/src/importer"
	"github.com/username/tradevault/backend/src/importer/ctrader"
	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/security/validation"
	"github.com/username/tradevault/backend/src/services"
	"github.com/username/tradevault/backend/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: service,
	}
}

// HandleImport accepts a multipart upload of one broker export and responds
// with the parsed preview. Form fields: file, format (csv|mt5|ctrader),
// account_id, source_timezone, target_timezone, and an optional JSON
// header_overrides object (canonical field -> column index) for the cTrader
// manual-mapping fallback.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB (header check)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	format := r.FormValue("format")
	switch format {
	case importer.FormatCSV, importer.FormatMT5, importer.FormatCtrader:
	default:
		utils.SendJSONError(w, fmt.Sprintf("Unknown format '%s'. Expected csv, mt5 or ctrader.", format), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType, format); err != nil {
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file, format)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated by magic bytes", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid or missing account_id", http.StatusBadRequest)
		return
	}

	sourceTZ := r.FormValue("source_timezone")
	if sourceTZ == "" {
		sourceTZ = config.Cfg.DefaultSourceTimezone
	}
	targetTZ := r.FormValue("target_timezone")
	if targetTZ == "" {
		targetTZ = config.Cfg.DefaultTargetTimezone
	}

	var overrides importer.HeaderMapping
	if rawOverrides := r.FormValue("header_overrides"); rawOverrides != "" {
		if err := json.Unmarshal([]byte(rawOverrides), &overrides); err != nil {
			utils.SendJSONError(w, "Invalid header_overrides: expected a JSON object of field name to column index", http.StatusBadRequest)
			return
		}
	}

	req := services.ImportRequest{
		AccountID:       accountID,
		Format:          format,
		SourceTimezone:  sourceTZ,
		TargetTimezone:  targetTZ,
		HeaderOverrides: overrides,
	}

	logger.L.Info("Processing import request", "accountID", accountID, "filename", fileHeader.Filename, "format", format)
	preview, err := h.importService.ProcessImport(file, req)
	if err != nil {
		var unmapped *ctrader.UnmappedFieldsError
		if errors.As(err, &unmapped) {
			// 422 with the unmapped fields so the client can collect a manual
			// mapping and retry with header_overrides.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":          "could not map required columns",
				"unmappedFields": unmapped.Fields,
				"headers":        unmapped.Headers,
			})
			return
		}
		if errors.Is(err, services.ErrUnknownAccount) {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		} else if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Import failed during parsing", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing file: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error processing import", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(preview); err != nil {
		logger.L.Error("Error encoding JSON response for import preview", "error", err)
	}
}

// HandleCommitImport persists a previously previewed batch. Body:
// {"importId": "...", "accountId": 1}.
func (h *ImportHandler) HandleCommitImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ImportID  string `json:"importId"`
		AccountID int64  `json:"accountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.ImportID == "" || body.AccountID == 0 {
		utils.SendJSONError(w, "importId and accountId are required", http.StatusBadRequest)
		return
	}

	result, err := h.importService.CommitImport(body.ImportID, body.AccountID)
	if err != nil {
		if errors.Is(err, services.ErrPreviewNotFound) {
			utils.SendJSONError(w, "Import preview not found or expired; upload the file again.", http.StatusGone)
			return
		}
		logger.L.Error("Error committing import", "importID", body.ImportID, "error", err)
		utils.SendJSONError(w, "An internal error occurred while saving the import.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for import commit", "error", err)
	}
}
