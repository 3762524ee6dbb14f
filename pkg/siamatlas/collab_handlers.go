package siamatlas

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/siamatlas/siamatlas/pkg/models"
)

var errInvalidTargetKind = errors.New("target_kind must be province or district")

// Collaboration requests are append-only records; accepting one is the only
// path that grants a collaborator role, and only the target's creator may
// decide a request.

func (a *App) handleCreateCollaborationRequest(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var req models.CollaborationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Role != models.RoleEditor && req.Role != models.RoleViewer {
		respondError(w, http.StatusBadRequest, "role must be editor or viewer")
		return
	}

	ctx := r.Context()
	target, err := a.resolveTarget(r, req.TargetKind, req.TargetID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if target == nil {
		respondError(w, http.StatusNotFound, "Target entity not found")
		return
	}

	req.RequesterID = admin.ID
	req.RequesterName = admin.Username
	req.Status = models.StatusPending
	if err := a.store.CreateCollaborationRequest(ctx, &req); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

// handleListCollaborationRequests filters by ?kind= and ?target=; both empty
// lists everything, which is admin-only information anyway.
func (a *App) handleListCollaborationRequests(w http.ResponseWriter, r *http.Request) {
	_, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	kind := models.TargetKind(r.URL.Query().Get("kind"))
	target := r.URL.Query().Get("target")
	reqs, err := a.store.ListCollaborationRequests(r.Context(), kind, target)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, reqs)
}

func (a *App) handleAcceptCollaborationRequest(w http.ResponseWriter, r *http.Request) {
	a.decideCollaborationRequest(w, r, true)
}

func (a *App) handleRejectCollaborationRequest(w http.ResponseWriter, r *http.Request) {
	a.decideCollaborationRequest(w, r, false)
}

func (a *App) decideCollaborationRequest(w http.ResponseWriter, r *http.Request, accept bool) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := models.ParseCollaborationID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid collaboration request ID")
		return
	}
	ctx := r.Context()
	req, err := a.store.GetCollaborationRequest(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req == nil {
		respondError(w, http.StatusNotFound, "Collaboration request not found")
		return
	}
	if req.Status != models.StatusPending {
		respondError(w, http.StatusConflict, "Request already decided")
		return
	}

	switch req.TargetKind {
	case models.TargetProvince:
		provinceID, err := models.ParseProvinceID(req.TargetID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Malformed target ID on request")
			return
		}
		province, err := a.store.GetProvince(ctx, provinceID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if province == nil {
			respondError(w, http.StatusNotFound, "Target province not found")
			return
		}
		if !province.IsCreator(actor.ID) {
			respondError(w, http.StatusForbidden, "Only a creator can decide collaboration requests")
			return
		}
		if accept && !province.Editors.HasRole(req.RequesterID, req.Role) {
			province.Editors = append(province.Editors, models.Collaborator{
				ID:   req.RequesterID,
				Name: req.RequesterName,
				Role: req.Role,
			})
			province.Version++
			province.Districts = nil
			if err := a.store.UpdateProvince(ctx, province); err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
	case models.TargetDistrict:
		districtID, err := models.ParseDistrictID(req.TargetID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Malformed target ID on request")
			return
		}
		district, err := a.store.GetDistrict(ctx, districtID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if district == nil {
			respondError(w, http.StatusNotFound, "Target district not found")
			return
		}
		if !district.IsCreator(actor.ID) {
			respondError(w, http.StatusForbidden, "Only a creator can decide collaboration requests")
			return
		}
		if accept && !district.Editors.HasRole(req.RequesterID, req.Role) {
			district.Editors = append(district.Editors, models.Collaborator{
				ID:   req.RequesterID,
				Name: req.RequesterName,
				Role: req.Role,
			})
			district.Version++
			if err := a.store.UpdateDistrict(ctx, district); err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
	default:
		respondError(w, http.StatusInternalServerError, "Malformed target kind on request")
		return
	}

	action := "reject_collaboration"
	req.Status = models.StatusRejected
	if accept {
		action = "accept_collaboration"
		req.Status = models.StatusAccepted
	}
	if err := a.store.UpdateCollaborationRequest(ctx, req); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, actor, string(req.TargetKind), req.TargetID, action, req.RequesterName)
	respondJSON(w, http.StatusOK, req)
}

// resolveTarget checks a collaboration target exists. Returns a non-nil
// value boxed as any; callers only test for nil.
func (a *App) resolveTarget(r *http.Request, kind models.TargetKind, targetID string) (any, error) {
	ctx := r.Context()
	switch kind {
	case models.TargetProvince:
		id, err := models.ParseProvinceID(targetID)
		if err != nil {
			return nil, err
		}
		p, err := a.store.GetProvince(ctx, id)
		if err != nil || p == nil {
			return nil, err
		}
		return p, nil
	case models.TargetDistrict:
		id, err := models.ParseDistrictID(targetID)
		if err != nil {
			return nil, err
		}
		d, err := a.store.GetDistrict(ctx, id)
		if err != nil || d == nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, errInvalidTargetKind
	}
}
