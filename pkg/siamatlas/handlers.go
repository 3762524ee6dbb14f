package siamatlas

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/siamatlas/siamatlas/internal/metrics"
	"github.com/siamatlas/siamatlas/pkg/editor"
	"github.com/siamatlas/siamatlas/pkg/models"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// getTokenFromHeader extracts the bearer token from the Authorization header.
func getTokenFromHeader(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const bearerPrefix = "Bearer "
	if len(auth) > len(bearerPrefix) && auth[:len(bearerPrefix)] == bearerPrefix {
		return auth[len(bearerPrefix):]
	}
	return auth
}

// currentAdmin resolves the request's session, nil when anonymous.
func (a *App) currentAdmin(r *http.Request) *models.Admin {
	return a.sessions.Get(getTokenFromHeader(r))
}

func editorUser(admin *models.Admin) *editor.User {
	if admin == nil {
		return nil
	}
	return &editor.User{ID: admin.ID, Name: admin.Username, Role: admin.Role}
}

// requireAdmin resolves the session or writes a 401. The second return is
// false when the response has already been written.
func (a *App) requireAdmin(w http.ResponseWriter, r *http.Request) (*models.Admin, bool) {
	admin := a.currentAdmin(r)
	if admin == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return admin, true
}

// authorizeWrite applies the server-side permission rule to a mutation:
// the actor must be a creator or an editor-role collaborator, and a locked
// entity only accepts writes from a creator (409 otherwise).
func authorizeWrite(w http.ResponseWriter, admin *models.Admin, e editor.Editable) bool {
	u := editorUser(admin)
	if !editor.CanEdit(u, e) {
		respondError(w, http.StatusForbidden, "You do not have edit access to this entity")
		return false
	}
	if e.IsLocked() && !e.Creators().Contains(admin.ID) {
		respondError(w, http.StatusConflict, "Entity is locked")
		return false
	}
	return true
}

// appendAudit writes one UpdateRecord. Audit failures are logged, never
// surfaced; the mutation they describe has already been accepted.
func (a *App) appendAudit(r *http.Request, actor *models.Admin, kind, entityID, action, summary string) {
	rec := &models.UpdateRecord{
		ActorID:    actor.ID,
		ActorName:  actor.Username,
		EntityKind: kind,
		EntityID:   entityID,
		Action:     action,
		Summary:    summary,
	}
	if err := a.store.AppendUpdate(r.Context(), rec); err != nil {
		a.log.Warn().Err(err).Str("entity", entityID).Msg("audit append failed")
	}
}

// Province handlers

func (a *App) handleCreateProvince(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var province models.Province
	if err := json.NewDecoder(r.Body).Decode(&province); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if province.NameTH == "" && province.NameEN == "" {
		respondError(w, http.StatusBadRequest, "Province name required")
		return
	}
	province.CreatedBy = models.AdminIDList{admin.ID}
	province.Version = 0
	province.Districts = nil

	if err := a.store.CreateProvince(r.Context(), &province); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("create_province").Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, admin, "province", province.ID.String(), "create", province.NameEN)
	respondJSON(w, http.StatusCreated, province)
}

func (a *App) handleGetProvince(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProvinceID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid province ID")
		return
	}
	ctx := r.Context()
	province, err := a.store.GetProvince(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if province == nil {
		respondError(w, http.StatusNotFound, "Province not found")
		return
	}
	districts, err := a.store.ListDistricts(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	province.Districts = districts
	respondJSON(w, http.StatusOK, province)
}

func (a *App) handleUpdateProvince(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := models.ParseProvinceID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid province ID")
		return
	}
	ctx := r.Context()
	existing, err := a.store.GetProvince(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Province not found")
		return
	}
	if !authorizeWrite(w, admin, existing) {
		return
	}

	var province models.Province
	if err := json.NewDecoder(r.Body).Decode(&province); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	province.ID = id
	// Ownership and version are server-managed.
	province.CreatedBy = existing.CreatedBy
	province.CreatedAt = existing.CreatedAt
	province.Version = existing.Version + 1
	province.Districts = nil

	if err := a.store.UpdateProvince(ctx, &province); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("update_province").Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, admin, "province", id.String(), "update", province.NameEN)
	respondJSON(w, http.StatusOK, province)
}

func (a *App) handleDeleteProvince(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := models.ParseProvinceID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid province ID")
		return
	}
	ctx := r.Context()
	existing, err := a.store.GetProvince(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Province not found")
		return
	}
	// Deletion is reserved for creators regardless of collaborator role.
	if !existing.IsCreator(admin.ID) {
		respondError(w, http.StatusForbidden, "Only a creator can delete a province")
		return
	}
	if err := a.store.DeleteProvince(ctx, id); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("delete_province").Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, admin, "province", id.String(), "delete", existing.NameEN)
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleListProvinces(w http.ResponseWriter, r *http.Request) {
	provinces, err := a.store.ListProvinces(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, provinces)
}

// handleSaveProvince is the best-effort editor save: the request body is the
// full session snapshot including districts. The province document is written
// first, then each district independently; a district the caller may not
// mutate is reported as a failure like any other, without aborting siblings.
func (a *App) handleSaveProvince(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := models.ParseProvinceID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid province ID")
		return
	}
	ctx := r.Context()
	existing, err := a.store.GetProvince(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "Province not found")
		return
	}
	if !authorizeWrite(w, admin, existing) {
		return
	}

	var snapshot models.Province
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	snapshot.ID = id
	snapshot.CreatedBy = existing.CreatedBy
	snapshot.CreatedAt = existing.CreatedAt
	snapshot.Version = existing.Version

	stored, err := a.store.ListDistricts(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	byID := make(map[models.DistrictID]*models.District, len(stored))
	for _, d := range stored {
		byID[d.ID] = d
	}

	// Each district carries its own creator list, collaborators and lock, so
	// province-level access does not extend to every district in the snapshot.
	// Denied districts become failures rather than aborting the save, and
	// server-managed district fields always come from the stored document.
	u := editorUser(admin)
	var denied []editor.DistrictFailure
	accepted := make([]*models.District, 0, len(snapshot.Districts))
	for _, d := range snapshot.Districts {
		cur := byID[d.ID]
		switch {
		case cur == nil:
			denied = append(denied, editor.DistrictFailure{
				ID: d.ID, NameEN: d.NameEN, Error: "district does not exist",
			})
			continue
		case !editor.CanEdit(u, cur):
			denied = append(denied, editor.DistrictFailure{
				ID: d.ID, NameEN: cur.NameEN, Error: "no edit access to district",
			})
			continue
		case cur.IsLocked() && !cur.CreatedBy.Contains(admin.ID):
			denied = append(denied, editor.DistrictFailure{
				ID: d.ID, NameEN: cur.NameEN, Error: "district is locked",
			})
			continue
		}
		d.ProvinceID = id
		d.CreatedBy = cur.CreatedBy
		d.CreatedAt = cur.CreatedAt
		d.Locked = cur.Locked
		d.Version = cur.Version
		accepted = append(accepted, d)
	}
	snapshot.Districts = accepted

	result, err := a.bridge.SaveProvince(ctx, &snapshot)
	if err != nil {
		if err == editor.ErrSaveInFlight {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		metrics.StoreErrorsTotal.WithLabelValues("save_province").Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	result.Failures = append(result.Failures, denied...)
	metrics.SavesTotal.Inc()
	metrics.SaveDistrictFailures.Add(float64(len(result.Failures)))
	a.appendAudit(r, admin, "province", id.String(), "save",
		fmt.Sprintf("%d districts saved, %d failed", result.Saved, len(result.Failures)))
	respondJSON(w, http.StatusOK, result)
}

// District handlers

func (a *App) handleCreateDistrict(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	provinceID, err := models.ParseProvinceID(mux.Vars(r)["provinceId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid province ID")
		return
	}
	ctx := r.Context()
	province, err := a.store.GetProvince(ctx, provinceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if province == nil {
		respondError(w, http.StatusNotFound, "Province not found")
		return
	}
	if !authorizeWrite(w, admin, province) {
		return
	}

	var district models.District
	if err := json.NewDecoder(r.Body).Decode(&district); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	district.ProvinceID = provinceID
	district.CreatedBy = models.AdminIDList{admin.ID}
	district.Version = 0

	if err := a.store.CreateDistrict(ctx, &district); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("create_district").Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, admin, "district", district.ID.String(), "create", district.NameEN)
	respondJSON(w, http.StatusCreated, district)
}

func (a *App) handleGetDistrict(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseDistrictID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid district ID")
		return
	}
	district, err := a.store.GetDistrict(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if district == nil {
		respondError(w, http.StatusNotFound, "District not found")
		return
	}
	respondJSON(w, http.StatusOK, district)
}

func (a *App) handleUpdateDistrict(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := models.ParseDistrictID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid district ID")
		return
	}
	ctx := r.Context()
	existing, err := a.store.GetDistrict(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "District not found")
		return
	}
	if !authorizeWrite(w, admin, existing) {
		return
	}

	var district models.District
	if err := json.NewDecoder(r.Body).Decode(&district); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	district.ID = id
	district.ProvinceID = existing.ProvinceID
	district.CreatedBy = existing.CreatedBy
	district.CreatedAt = existing.CreatedAt
	district.Version = existing.Version + 1

	if err := a.store.UpdateDistrict(ctx, &district); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("update_district").Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, admin, "district", id.String(), "update", district.NameEN)
	respondJSON(w, http.StatusOK, district)
}

func (a *App) handleDeleteDistrict(w http.ResponseWriter, r *http.Request) {
	admin, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	id, err := models.ParseDistrictID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid district ID")
		return
	}
	ctx := r.Context()
	existing, err := a.store.GetDistrict(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "District not found")
		return
	}
	if !authorizeWrite(w, admin, existing) {
		return
	}
	if err := a.store.DeleteDistrict(ctx, id); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("delete_district").Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, admin, "district", id.String(), "delete", existing.NameEN)
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleListDistricts(w http.ResponseWriter, r *http.Request) {
	provinceID, err := models.ParseProvinceID(mux.Vars(r)["provinceId"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid province ID")
		return
	}
	districts, err := a.store.ListDistricts(r.Context(), provinceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, districts)
}

// Updates feed

func (a *App) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	updates, err := a.store.ListUpdates(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updates)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"backend":   a.config.Backend,
		"read_only": a.IsReadOnly(),
		"time":      time.Now().Unix(),
	})
}
