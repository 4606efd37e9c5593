package controllers

import (
	"net/http"
	"strings"

	"github.com/dnadiscipleship/dna-backend/api/middleware"
	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/documents"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type addDocumentRequest struct {
	Kind    string `json:"kind" validate:"required"`
	Title   string `json:"title" validate:"required,max=300"`
	FileURL string `json:"file_url" validate:"required,url"`
}

type resourceRequest struct {
	Title              string  `json:"title" validate:"required,max=300"`
	Description        *string `json:"description,omitempty"`
	FileURL            string  `json:"file_url" validate:"required,url"`
	RequiresAssessment bool    `json:"requires_assessment"`
}

func AddDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addDocumentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.DocumentKind(strings.TrimSpace(req.Kind))
		if !kind.IsValid() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unknown document kind").WithDetails(map[string]any{"kind": req.Kind}))
			return
		}

		doc, err := svc.AddDocument(r.Context(), documents.AddDocumentInput{
			ChurchID: churchID,
			Kind:     kind,
			Title:    req.Title,
			FileURL:  req.FileURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}

func ListDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs, err := svc.ListDocuments(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, docs)
	}
}

func RemoveDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID, err := validators.ParseUUIDParam(r, "documentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveDocument(r.Context(), docID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListResources returns the resource library filtered for the caller.
// Admins see everything; participants only see assessment-gated files once
// their assessment is complete.
func ListResources(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		if sess.IsAdmin() || sess.IsDNACoach() {
			list, err := svc.ListAllResources(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
			return
		}

		list, err := svc.ListResourcesForUser(r.Context(), sess.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CreateResource(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resourceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resource, err := svc.CreateResource(r.Context(), documents.ResourceInput{
			Title:              req.Title,
			Description:        req.Description,
			FileURL:            req.FileURL,
			RequiresAssessment: req.RequiresAssessment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resource)
	}
}

func UpdateResource(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resourceID, err := validators.ParseUUIDParam(r, "resourceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req resourceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resource, err := svc.UpdateResource(r.Context(), resourceID, documents.ResourceInput{
			Title:              req.Title,
			Description:        req.Description,
			FileURL:            req.FileURL,
			RequiresAssessment: req.RequiresAssessment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resource)
	}
}

func RemoveResource(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resourceID, err := validators.ParseUUIDParam(r, "resourceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveResource(r.Context(), resourceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
