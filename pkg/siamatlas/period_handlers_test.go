package siamatlas

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siamatlas/siamatlas/pkg/models"
)

func TestProvincePeriodLifecycle(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")
	token := signIn(t, router, "somchai", "letmein")

	base := "/api/provinces/" + province.ID.String() + "/periods"

	rec := doJSON(t, router, http.MethodPost, base, token, models.HistoricalPeriod{
		Era:       "Lanna Kingdom",
		StartYear: 1296,
		EndYear:   1558,
		Events:    []string{"Founding of Chiang Mai by King Mangrai"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p models.Province
	decodeBody(t, rec, &p)
	require.Len(t, p.Periods, 1)
	require.Equal(t, int64(1), p.Version)

	rec = doJSON(t, router, http.MethodPost, base, token, models.HistoricalPeriod{
		Era:       "Burmese Rule",
		StartYear: 1558,
		EndYear:   1774,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &p)
	require.Len(t, p.Periods, 2)
	require.Equal(t, "Lanna Kingdom", p.Periods[0].Era)
	require.Equal(t, "Burmese Rule", p.Periods[1].Era)

	rec = doJSON(t, router, http.MethodPut, base+"/1", token, models.HistoricalPeriod{
		Era:       "Burmese Vassal Period",
		StartYear: 1558,
		EndYear:   1774,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &p)
	require.Equal(t, "Burmese Vassal Period", p.Periods[1].Era)
	require.Equal(t, int64(3), p.Version)

	rec = doJSON(t, router, http.MethodDelete, base+"/0", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &p)
	require.Len(t, p.Periods, 1)
	require.Equal(t, "Burmese Vassal Period", p.Periods[0].Era)
}

func TestProvincePeriodValidation(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")
	token := signIn(t, router, "somchai", "letmein")

	base := "/api/provinces/" + province.ID.String() + "/periods"

	rec := doJSON(t, router, http.MethodPost, base, token, models.HistoricalPeriod{StartYear: 1296})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "era")

	rec = doJSON(t, router, http.MethodPut, base+"/5", token, models.HistoricalPeriod{Era: "Lanna"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, base+"/0", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPut, base+"/junk", token, models.HistoricalPeriod{Era: "Lanna"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDistrictPeriodRequiresEditAccess(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	seedAdmin(t, app, "intruder", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")
	district := seedDistrict(t, ms, province.ID, creator.ID, "Mueang Chiang Mai")

	base := fmt.Sprintf("/api/districts/%s/periods", district.ID)
	period := models.HistoricalPeriod{Era: "Lanna Kingdom", StartYear: 1296, EndYear: 1558}

	intruderToken := signIn(t, router, "intruder", "letmein")
	rec := doJSON(t, router, http.MethodPost, base, intruderToken, period)
	require.Equal(t, http.StatusForbidden, rec.Code)

	creatorToken := signIn(t, router, "somchai", "letmein")
	rec = doJSON(t, router, http.MethodPost, base, creatorToken, period)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d models.District
	decodeBody(t, rec, &d)
	require.Len(t, d.Periods, 1)
	require.Equal(t, int64(1), d.Version)
}
