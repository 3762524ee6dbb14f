package siamatlas

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/siamatlas/siamatlas/internal/metrics"
	"github.com/siamatlas/siamatlas/pkg/models"
)

// Historical period handlers. Periods live embedded in their owning
// province or district document; every mutation rewrites the owner with a
// version bump.

func parsePeriodIndex(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["index"])
}

func (a *App) handleAddProvincePeriod(w http.ResponseWriter, r *http.Request) {
	a.mutateProvincePeriods(w, r, func(list models.PeriodList, p models.HistoricalPeriod) (models.PeriodList, error) {
		return append(list, p), nil
	}, "add_period")
}

func (a *App) handleUpdateProvincePeriod(w http.ResponseWriter, r *http.Request) {
	index, err := parsePeriodIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period index")
		return
	}
	a.mutateProvincePeriods(w, r, func(list models.PeriodList, p models.HistoricalPeriod) (models.PeriodList, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("no period at index %d", index)
		}
		list[index] = p
		return list, nil
	}, "update_period")
}

func (a *App) handleDeleteProvincePeriod(w http.ResponseWriter, r *http.Request) {
	index, err := parsePeriodIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period index")
		return
	}
	a.mutateProvincePeriods(w, r, func(list models.PeriodList, _ models.HistoricalPeriod) (models.PeriodList, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("no period at index %d", index)
		}
		return append(list[:index], list[index+1:]...), nil
	}, "delete_period")
}

// mutateProvincePeriods loads the province, authorizes the write, applies fn
// to its period list and persists the result. fn receives the decoded period
// for add/update; delete ignores it.
func (a *App) mutateProvincePeriods(w http.ResponseWriter, r *http.Request,
	fn func(models.PeriodList, models.HistoricalPeriod) (models.PeriodList, error), action string) {
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
	province, err := a.store.GetProvince(ctx, id)
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

	var period models.HistoricalPeriod
	if r.Method != http.MethodDelete {
		if err := json.NewDecoder(r.Body).Decode(&period); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if period.Era == "" {
			respondError(w, http.StatusBadRequest, "Period era required")
			return
		}
	}

	next, err := fn(province.Periods, period)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	province.Periods = next
	province.Version++
	province.Districts = nil
	if err := a.store.UpdateProvince(ctx, province); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(action).Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, admin, "province", id.String(), action, period.Era)
	respondJSON(w, http.StatusOK, province)
}

func (a *App) handleAddDistrictPeriod(w http.ResponseWriter, r *http.Request) {
	a.mutateDistrictPeriods(w, r, func(list models.PeriodList, p models.HistoricalPeriod) (models.PeriodList, error) {
		return append(list, p), nil
	}, "add_period")
}

func (a *App) handleUpdateDistrictPeriod(w http.ResponseWriter, r *http.Request) {
	index, err := parsePeriodIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period index")
		return
	}
	a.mutateDistrictPeriods(w, r, func(list models.PeriodList, p models.HistoricalPeriod) (models.PeriodList, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("no period at index %d", index)
		}
		list[index] = p
		return list, nil
	}, "update_period")
}

func (a *App) handleDeleteDistrictPeriod(w http.ResponseWriter, r *http.Request) {
	index, err := parsePeriodIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period index")
		return
	}
	a.mutateDistrictPeriods(w, r, func(list models.PeriodList, _ models.HistoricalPeriod) (models.PeriodList, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("no period at index %d", index)
		}
		return append(list[:index], list[index+1:]...), nil
	}, "delete_period")
}

func (a *App) mutateDistrictPeriods(w http.ResponseWriter, r *http.Request,
	fn func(models.PeriodList, models.HistoricalPeriod) (models.PeriodList, error), action string) {
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
	district, err := a.store.GetDistrict(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if district == nil {
		respondError(w, http.StatusNotFound, "District not found")
		return
	}
	if !authorizeWrite(w, admin, district) {
		return
	}

	var period models.HistoricalPeriod
	if r.Method != http.MethodDelete {
		if err := json.NewDecoder(r.Body).Decode(&period); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if period.Era == "" {
			respondError(w, http.StatusBadRequest, "Period era required")
			return
		}
	}

	next, err := fn(district.Periods, period)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	district.Periods = next
	district.Version++
	if err := a.store.UpdateDistrict(ctx, district); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(action).Inc()
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.appendAudit(r, admin, "district", id.String(), action, period.Era)
	respondJSON(w, http.StatusOK, district)
}
