package storage

import (
	"path"
	"strings"
	"unicode"
)

// On-disk layout shared by the writer and the reader:
//
//	cases/<caseId>/metadata.json
//	cases/<caseId>/documents/<documentId>_<sanitizedName>
const (
	CasesPrefix      = "cases/"
	MetadataFilename = "metadata.json"
	documentsDir     = "documents"
	fallbackFilename = "document"
)

// CasePrefix is the key prefix owned by a single case.
func CasePrefix(caseID string) string {
	return CasesPrefix + caseID + "/"
}

// MetadataKey is the manifest location of a case.
func MetadataKey(caseID string) string {
	return CasePrefix(caseID) + MetadataFilename
}

// DocumentsPrefix is the prefix holding every document file of a case.
func DocumentsPrefix(caseID string) string {
	return CasePrefix(caseID) + documentsDir + "/"
}

// DocumentFilename is the stored filename of a document: its id, an underscore, then the sanitized name.
func DocumentFilename(documentID, name string) string {
	return documentID + "_" + SanitizeFilename(name)
}

// DocumentKey is the full key of a document file.
func DocumentKey(caseID, documentID, name string) string {
	return DocumentsPrefix(caseID) + DocumentFilename(documentID, name)
}

// IsMetadataKey reports whether key names a manifest at any depth below the cases prefix.
func IsMetadataKey(key string) bool {
	return strings.HasPrefix(key, CasesPrefix) && path.Base(key) == MetadataFilename
}

// SanitizeFilename makes an untrusted client filename safe to use as a path element.
// Surrounding whitespace is trimmed, spaces become underscores and anything that is
// not a letter, number, '_', '-' or '.' is dropped. An empty result becomes "document".
func SanitizeFilename(name string) string {
	base := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallbackFilename
	}
	return b.String()
}

// cleanKey validates a key and returns its canonical form.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	return path.Clean(key), nil
}
