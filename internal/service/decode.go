package service

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"

	"docudeep/internal/model"
	"docudeep/internal/validation"
)

// DocumentInput is one entry of the create-case request body.
// Fields are pointers so a missing key can be told apart from an empty value.
type DocumentInput struct {
	Name    *string `json:"name"`
	Type    *string `json:"type"`
	Content *string `json:"content"`
}

// CreateCaseRequest is the JSON body accepted by the upload endpoint.
type CreateCaseRequest struct {
	Documents []DocumentInput `json:"documents"`
}

// DecodeCreateCaseRequest parses a raw request body into payloads.
// Every failure is a *validation.Error so transports can answer with a client error.
func DecodeCreateCaseRequest(body []byte) ([]model.DocumentPayload, error) {
	var envelope struct {
		Documents json.RawMessage `json:"documents"`
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, validation.Wrap(validation.CodeInvalidPayload, err, "invalid JSON payload")
		}
	}

	raw := bytes.TrimSpace(envelope.Documents)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, validation.Errorf(validation.CodeInvalidPayload, "field 'documents' must be a list")
	}
	var docs []DocumentInput
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, validation.Wrap(validation.CodeInvalidPayload, err, "field 'documents' is invalid")
	}
	return DecodeDocuments(docs)
}

// DecodeDocuments turns request entries into payloads, decoding base64 content.
func DecodeDocuments(docs []DocumentInput) ([]model.DocumentPayload, error) {
	payloads := make([]model.DocumentPayload, 0, len(docs))
	for _, d := range docs {
		switch {
		case d.Name == nil:
			return nil, validation.Errorf(validation.CodeMissingField, "missing field: name")
		case d.Type == nil:
			return nil, validation.Errorf(validation.CodeMissingField, "missing field: type")
		case d.Content == nil:
			return nil, validation.Errorf(validation.CodeMissingField, "missing field: content")
		}
		// StdEncoding silently skips CR and LF; only the bare alphabet is accepted.
		if strings.ContainsAny(*d.Content, "\r\n") {
			return nil, validation.Errorf(validation.CodeUndecodableContent, "unable to decode the submitted document")
		}
		raw, err := base64.StdEncoding.DecodeString(*d.Content)
		if err != nil {
			return nil, validation.Wrap(validation.CodeUndecodableContent, err, "unable to decode the submitted document")
		}
		payloads = append(payloads, model.DocumentPayload{
			Name:         *d.Name,
			DeclaredType: model.DocumentType(*d.Type),
			Raw:          raw,
		})
	}
	return payloads, nil
}
