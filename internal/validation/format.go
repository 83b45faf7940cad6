package validation

import (
	"bytes"
	"net/http"
	"strings"

	"docudeep/internal/model"
)

var pdfSignature = []byte("%PDF")

// Verify checks a single payload before anything is written.
//
// Rules are applied in order: declared type, size bounds, then a format check
// chosen from the lower-cased filename extension. PDFs must start with the
// %PDF signature; .png/.jpg/.jpeg files must sniff as PNG or JPEG from their
// magic bytes regardless of which of the two the extension names.
func Verify(p model.DocumentPayload) error {
	if !p.DeclaredType.Valid() {
		return Errorf(CodeInvalidType, "invalid document type: %s", p.DeclaredType)
	}
	if p.Size() == 0 {
		return Errorf(CodeEmptyFile, "%s is empty", p.Name)
	}
	if p.Size() > model.MaxDocumentSize {
		return Errorf(CodeFileTooLarge, "%s exceeds the maximum size of 10 MB", p.Name)
	}

	lower := strings.ToLower(p.Name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		if !bytes.HasPrefix(p.Raw, pdfSignature) {
			return Errorf(CodeNotAValidPDF, "%s is not a valid PDF", p.Name)
		}
	case strings.HasSuffix(lower, ".png"), strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		if !isPNGOrJPEG(p.Raw) {
			return Errorf(CodeCorruptImage, "%s seems corrupt or unreadable", p.Name)
		}
	default:
		return Errorf(CodeUnsupportedFormat, "unsupported format for %s", p.Name)
	}
	return nil
}

// isPNGOrJPEG sniffs the leading bytes; DetectContentType only looks at the first 512.
func isPNGOrJPEG(raw []byte) bool {
	switch http.DetectContentType(raw) {
	case "image/png", "image/jpeg":
		return true
	default:
		return false
	}
}
