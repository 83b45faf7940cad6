package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docudeep/internal/metrics"
	"docudeep/internal/model"
	"docudeep/internal/service"
	"docudeep/internal/validation"
)

// caseList is the body of the case listing.
type caseList struct {
	Cases []model.CaseRecord `json:"cases"`
}

// messageResponse is a plain acknowledgement.
type messageResponse struct {
	Message string `json:"message"`
}

// CreateCase godoc
// @Summary Create a case
// @Description Validates every document and persists them together with the case manifest.
// @Tags upload
// @Accept json
// @Produce json
// @Param body body service.CreateCaseRequest true "Documents, content base64-encoded"
// @Success 201 {object} model.CaseRecord
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /cases [post]
//
// m counts bodies rejected before they reach svc; svc counts its own rejections. m may be nil.
func CreateCase(svc service.CaseStorage, m *metrics.CaseMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payloads, err := service.DecodeCreateCaseRequest(c.Body())
		if err != nil {
			if ve, ok := validation.AsError(err); ok {
				m.ValidationFailed(ve.Code)
			}
			return writeServiceError(c, err)
		}
		rec, err := svc.CreateCase(c.UserContext(), payloads)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ResetStorage godoc
// @Summary Remove every case
// @Tags upload
// @Produce json
// @Success 200 {object} messageResponse
// @Failure 500 {object} errorPayload
// @Router /cases/reset [post]
func ResetStorage(svc service.CaseStorage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Reset(c.UserContext()); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(messageResponse{Message: "storage cleared"})
	}
}

// ListCases godoc
// @Summary List cases, newest first
// @Tags view
// @Produce json
// @Success 200 {object} caseList
// @Failure 500 {object} errorPayload
// @Router /cases [get]
func ListCases(svc service.CaseViewer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cases, err := svc.ListCases(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(caseList{Cases: cases})
	}
}

// GetCase godoc
// @Summary Get a case manifest
// @Tags view
// @Produce json
// @Param caseId path string true "Case ID"
// @Success 200 {object} model.CaseRecord
// @Failure 404 {object} errorPayload
// @Router /cases/{caseId} [get]
func GetCase(svc service.CaseViewer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.GetCase(c.UserContext(), c.Params("caseId"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// GetDocument godoc
// @Summary Download a document
// @Tags view
// @Produce application/pdf,image/png,image/jpeg,application/octet-stream
// @Param caseId path string true "Case ID"
// @Param documentId path string true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /cases/{caseId}/documents/{documentId} [get]
func GetDocument(svc service.CaseViewer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.GetDocument(c.UserContext(), c.Params("caseId"), c.Params("documentId"))
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Set(fiber.HeaderContentType, doc.MimeType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+dispositionName(doc.Document.Name)+`"`)
		return c.Status(fiber.StatusOK).Send(doc.Data)
	}
}

// dispositionName keeps a client-supplied name from breaking out of the quoted header value.
var dispositionName = strings.NewReplacer(`"`, "'", "\r", "", "\n", "", `\`, "_").Replace
