package model

// DocumentType is the business category declared by the client for an uploaded file.
type DocumentType string

const (
	TypePayslip   DocumentType = "bulletin_de_paie"
	TypeTaxNotice DocumentType = "avis_d_imposition"
	TypeCharges   DocumentType = "charges"
)

// AllowedTypes lists every DocumentType accepted on upload.
var AllowedTypes = []DocumentType{TypePayslip, TypeTaxNotice, TypeCharges}

// Valid reports whether t is one of AllowedTypes.
func (t DocumentType) Valid() bool {
	for _, a := range AllowedTypes {
		if t == a {
			return true
		}
	}
	return false
}

// StatusStored is the only status a document reaches: it is set at creation and never changes.
const StatusStored = "stored"

const (
	// MaxDocumentsPerCase is the upper bound on documents submitted in a single case.
	MaxDocumentsPerCase = 5
	// MaxDocumentSize is the largest accepted document, in bytes (10 MiB).
	MaxDocumentSize = 10 * 1024 * 1024
)

// DocumentPayload is a decoded upload waiting for validation. It is never persisted as is.
type DocumentPayload struct {
	Name         string
	DeclaredType DocumentType
	Raw          []byte
}

// Size returns the payload length in bytes.
func (p DocumentPayload) Size() int64 {
	return int64(len(p.Raw))
}

// StoredDocument describes one persisted file inside a case manifest.
// Name is the original client-supplied filename and must be treated as untrusted.
type StoredDocument struct {
	DocumentID string       `json:"document_id"`
	Name       string       `json:"name"`
	Type       DocumentType `json:"type"`
	Size       int64        `json:"size"`
	Status     string       `json:"status"`
}

// CaseRecord is the manifest serialized to metadata.json.
// CreatedAt is an ISO-8601 UTC timestamp kept as text so manifests round-trip byte for byte.
type CaseRecord struct {
	CaseID    string           `json:"case_id"`
	CreatedAt string           `json:"created_at"`
	Documents []StoredDocument `json:"documents"`
}

// Document returns the entry whose DocumentID matches id exactly.
func (c *CaseRecord) Document(id string) (StoredDocument, bool) {
	for _, d := range c.Documents {
		if d.DocumentID == id {
			return d, true
		}
	}
	return StoredDocument{}, false
}
