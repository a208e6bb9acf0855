package validation

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/tradevault/backend/src/logger"
)

// Allowed client-declared MIME types per import format. CSVs travel under a
// surprising variety of labels; the HTML report formats are stricter.
var allowedClientContentTypes = map[string]map[string]bool{
	"csv": {
		"text/csv":                 true,
		"application/csv":          true,
		"application/vnd.ms-excel": true, // Often used for CSV by older Excel
		"text/plain":               true, // CSVs are often plain text
		"application/octet-stream": true, // Fallback, but be more cautious
	},
	"mt5": {
		"text/html":                true,
		"application/xhtml+xml":    true,
		"application/octet-stream": true, // UTF-16 reports often arrive as this
	},
	"ctrader": {
		"text/html":                true,
		"application/xhtml+xml":    true,
		"application/octet-stream": true,
	},
}

// ValidateClientContentType checks the Content-Type header provided by the
// client against what the selected import format can plausibly be.
func ValidateClientContentType(contentType, format string) error {
	allowed := allowedClientContentTypes[format]
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed == nil || !allowed[mediaType] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType, "format", format)
		return fmt.Errorf("client-declared file type '%s' is not allowed for a %s import", contentType, format)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the actual file content signature.
// It returns the detected content type and an error if validation fails.
func ValidateFileContentByMagicBytes(file io.ReadSeeker, format string) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512) // Read first 512 bytes for MIME detection
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// IMPORTANT: Reset the file read pointer to the beginning so the actual parser can read the full file.
	_, seekErr := file.Seek(0, io.SeekStart)
	if seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0]) // Normalize (e.g. "text/plain; charset=utf-8")

	// Detection is advisory: CSVs detect as text/plain, HTML reports as
	// text/html, and UTF-16 MT5 reports as octet-stream. The parser is the
	// real gate; this check only rejects content that cannot possibly be a
	// broker export (images, archives, executables).
	allowedDetectedTypes := map[string]bool{
		"text/plain":               true,
		"text/csv":                 true,
		"application/csv":          true,
		"text/html":                true,
		"text/xml":                 true,
		"application/octet-stream": true,
	}
	// UTF-16 text detects with its charset split off above; the BOM itself
	// also trips the generic utf-16 detection.
	if strings.HasPrefix(detectedContentType, "text/") {
		allowedDetectedTypes[detectedContentType] = true
	}

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType, "format", format)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not consistent with a %s export", detectedContentType, format)
	}

	logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
