package siamatlas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siamatlas/siamatlas/pkg/editor"
	"github.com/siamatlas/siamatlas/pkg/models"
	"github.com/siamatlas/siamatlas/pkg/store/memory"
)

func seedProvince(t *testing.T, ms *memory.MemoryStore, creator models.AdminID, nameEN string) *models.Province {
	t.Helper()
	p := &models.Province{
		NameTH:    nameEN,
		NameEN:    nameEN,
		CreatedBy: models.AdminIDList{creator},
	}
	require.NoError(t, ms.CreateProvince(context.Background(), p))
	return p
}

func seedDistrict(t *testing.T, ms *memory.MemoryStore, provinceID models.ProvinceID, creator models.AdminID, nameEN string) *models.District {
	t.Helper()
	d := &models.District{
		ProvinceID: provinceID,
		NameTH:     nameEN,
		NameEN:     nameEN,
		Bounds:     models.Bounds{X: 10, Y: 10, Width: 40, Height: 30},
		CreatedBy:  models.AdminIDList{creator},
	}
	require.NoError(t, ms.CreateDistrict(context.Background(), d))
	return d
}

func TestCreateProvinceRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/provinces", "", models.Province{NameEN: "Chiang Mai"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProvinceLifecycle(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	admin := seedAdmin(t, app, "somchai", "letmein")
	token := signIn(t, router, "somchai", "letmein")

	rec := doJSON(t, router, http.MethodPost, "/api/provinces", token, models.Province{
		NameTH:  "เชียงใหม่",
		NameEN:  "Chiang Mai",
		AreaKm2: 20107,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Province
	decodeBody(t, rec, &created)
	require.False(t, created.ID.IsZero())
	require.Equal(t, int64(0), created.Version)
	require.True(t, created.CreatedBy.Contains(admin.ID))

	rec = doJSON(t, router, http.MethodGet, "/api/provinces/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched models.Province
	decodeBody(t, rec, &fetched)
	require.Equal(t, "Chiang Mai", fetched.NameEN)

	fetched.NameEN = "Chiang Mai (Lanna)"
	// Attempts to reassign ownership in the payload must be ignored.
	fetched.CreatedBy = models.AdminIDList{models.NewAdminID()}
	rec = doJSON(t, router, http.MethodPut, "/api/provinces/"+created.ID.String(), token, fetched)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Province
	decodeBody(t, rec, &updated)
	require.Equal(t, int64(1), updated.Version)
	require.True(t, updated.CreatedBy.Contains(admin.ID))

	rec = doJSON(t, router, http.MethodGet, "/api/provinces", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*models.Province
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/provinces/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/provinces/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateProvinceDeniedForNonCollaborator(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	seedAdmin(t, app, "intruder", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")

	token := signIn(t, router, "intruder", "letmein")
	rec := doJSON(t, router, http.MethodPut, "/api/provinces/"+province.ID.String(), token, province)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLockedProvinceAcceptsOnlyCreatorWrites(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	helper := seedAdmin(t, app, "malee", "letmein")

	province := &models.Province{
		NameTH:    "ลพบุรี",
		NameEN:    "Lopburi",
		CreatedBy: models.AdminIDList{creator.ID},
		Editors: models.CollaboratorList{
			{ID: helper.ID, Name: helper.Username, Role: models.RoleEditor},
		},
		Locked: true,
	}
	require.NoError(t, ms.CreateProvince(context.Background(), province))

	helperToken := signIn(t, router, "malee", "letmein")
	rec := doJSON(t, router, http.MethodPut, "/api/provinces/"+province.ID.String(), helperToken, province)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "locked")

	creatorToken := signIn(t, router, "somchai", "letmein")
	rec = doJSON(t, router, http.MethodPut, "/api/provinces/"+province.ID.String(), creatorToken, province)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Province
	decodeBody(t, rec, &updated)
	require.Equal(t, int64(1), updated.Version)
}

func TestDeleteProvinceIsCreatorOnly(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	helper := seedAdmin(t, app, "malee", "letmein")

	province := &models.Province{
		NameEN:    "Phuket",
		CreatedBy: models.AdminIDList{creator.ID},
		Editors: models.CollaboratorList{
			{ID: helper.ID, Name: helper.Username, Role: models.RoleEditor},
		},
	}
	require.NoError(t, ms.CreateProvince(context.Background(), province))

	helperToken := signIn(t, router, "malee", "letmein")
	rec := doJSON(t, router, http.MethodDelete, "/api/provinces/"+province.ID.String(), helperToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	creatorToken := signIn(t, router, "somchai", "letmein")
	rec = doJSON(t, router, http.MethodDelete, "/api/provinces/"+province.ID.String(), creatorToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDistrictLifecycle(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")
	token := signIn(t, router, "somchai", "letmein")

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/provinces/%s/districts", province.ID), token,
		models.District{
			NameTH: "เมืองเชียงใหม่",
			NameEN: "Mueang Chiang Mai",
			Bounds: models.Bounds{X: 5, Y: 5, Width: 20, Height: 20},
		})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var district models.District
	decodeBody(t, rec, &district)
	require.Equal(t, province.ID, district.ProvinceID)
	require.Equal(t, int64(0), district.Version)
	require.True(t, district.CreatedBy.Contains(creator.ID))

	district.Color = "#8b5a2b"
	rec = doJSON(t, router, http.MethodPut, "/api/districts/"+district.ID.String(), token, district)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.District
	decodeBody(t, rec, &updated)
	require.Equal(t, int64(1), updated.Version)
	require.Equal(t, "#8b5a2b", updated.Color)

	rec = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/provinces/%s/districts", province.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*models.District
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/districts/"+district.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/districts/"+district.ID.String(), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDistrictRequiresProvinceEditAccess(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	seedAdmin(t, app, "intruder", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")

	token := signIn(t, router, "intruder", "letmein")
	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/provinces/%s/districts", province.ID), token,
		models.District{NameEN: "Hang Dong"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

// The save endpoint writes the province first, then each district
// independently. One failing district must not abort its siblings, and only
// written entities may advance their version.
func TestSaveProvinceBestEffort(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")
	seedDistrict(t, ms, province.ID, creator.ID, "One")
	two := seedDistrict(t, ms, province.ID, creator.ID, "Two")
	seedDistrict(t, ms, province.ID, creator.ID, "Three")
	token := signIn(t, router, "somchai", "letmein")

	rec := doJSON(t, router, http.MethodGet, "/api/provinces/"+province.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot models.Province
	decodeBody(t, rec, &snapshot)
	require.Len(t, snapshot.Districts, 3)

	ms.UpdateDistrictHook = func(d *models.District) error {
		if d.NameEN == "Two" {
			return errors.New("simulated backend outage")
		}
		return nil
	}

	rec = doJSON(t, router, http.MethodPost, "/api/provinces/"+province.ID.String()+"/save", token, snapshot)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result editor.SaveResult
	decodeBody(t, rec, &result)
	require.Equal(t, 2, result.Saved)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "Two", result.Failures[0].NameEN)
	require.Contains(t, result.Failures[0].Error, "simulated backend outage")

	ctx := context.Background()
	stored, err := ms.GetProvince(ctx, province.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.Version)

	failed, err := ms.GetDistrict(ctx, two.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), failed.Version)

	districts, err := ms.ListDistricts(ctx, province.ID)
	require.NoError(t, err)
	for _, d := range districts {
		if d.ID != two.ID {
			require.Equal(t, int64(1), d.Version, d.NameEN)
		}
	}
}

func TestSaveProvinceEnforcesDistrictOwnership(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	ctx := context.Background()
	creator := seedAdmin(t, app, "somchai", "letmein")
	other := seedAdmin(t, app, "warin", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")

	// Owned by someone else and locked; the saver holds only an editor role.
	locked := &models.District{
		ProvinceID: province.ID,
		NameTH:     "Locked One",
		NameEN:     "Locked One",
		Bounds:     models.Bounds{X: 10, Y: 10, Width: 40, Height: 30},
		CreatedBy:  models.AdminIDList{other.ID},
		Editors:    models.CollaboratorList{{ID: creator.ID, Name: "somchai", Role: models.RoleEditor}},
		Locked:     true,
	}
	require.NoError(t, ms.CreateDistrict(ctx, locked))
	// Owned by someone else with no collaboration at all.
	private := seedDistrict(t, ms, province.ID, other.ID, "Private")
	mine := seedDistrict(t, ms, province.ID, creator.ID, "Mine")
	token := signIn(t, router, "somchai", "letmein")

	rec := doJSON(t, router, http.MethodGet, "/api/provinces/"+province.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot models.Province
	decodeBody(t, rec, &snapshot)
	require.Len(t, snapshot.Districts, 3)
	for _, d := range snapshot.Districts {
		if d.ID == locked.ID {
			d.NameEN = "Overwritten by non-creator"
			d.Locked = false
			d.CreatedBy = models.AdminIDList{creator.ID}
		}
		if d.ID == private.ID {
			d.NameEN = "Hijacked"
		}
	}

	rec = doJSON(t, router, http.MethodPost, "/api/provinces/"+province.ID.String()+"/save", token, snapshot)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result editor.SaveResult
	decodeBody(t, rec, &result)
	require.Equal(t, 1, result.Saved)
	require.Len(t, result.Failures, 2)
	errByID := map[models.DistrictID]string{}
	for _, f := range result.Failures {
		errByID[f.ID] = f.Error
	}
	require.Contains(t, errByID[locked.ID], "locked")
	require.Contains(t, errByID[private.ID], "edit access")

	stored, err := ms.GetDistrict(ctx, locked.ID)
	require.NoError(t, err)
	require.Equal(t, "Locked One", stored.NameEN)
	require.True(t, stored.Locked)
	require.True(t, stored.CreatedBy.Contains(other.ID))
	require.False(t, stored.CreatedBy.Contains(creator.ID))
	require.Equal(t, int64(0), stored.Version)

	stored, err = ms.GetDistrict(ctx, private.ID)
	require.NoError(t, err)
	require.Equal(t, "Private", stored.NameEN)
	require.Equal(t, int64(0), stored.Version)

	stored, err = ms.GetDistrict(ctx, mine.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.Version)
}

func TestSaveProvinceVersionsFromStoredDocuments(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	ctx := context.Background()
	creator := seedAdmin(t, app, "somchai", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")
	district := seedDistrict(t, ms, province.ID, creator.ID, "Mueang")
	token := signIn(t, router, "somchai", "letmein")

	current, err := ms.GetDistrict(ctx, district.ID)
	require.NoError(t, err)
	current.Version = 3
	require.NoError(t, ms.UpdateDistrict(ctx, current))

	rec := doJSON(t, router, http.MethodGet, "/api/provinces/"+province.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot models.Province
	decodeBody(t, rec, &snapshot)
	require.Len(t, snapshot.Districts, 1)
	snapshot.Districts[0].Version = 99

	rec = doJSON(t, router, http.MethodPost, "/api/provinces/"+province.ID.String()+"/save", token, snapshot)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := ms.GetDistrict(ctx, district.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), stored.Version, "one increment over the stored version")

	ghost := snapshot
	ghost.Districts = []*models.District{{ID: models.NewDistrictID(), ProvinceID: province.ID, NameEN: "Ghost"}}
	rec = doJSON(t, router, http.MethodPost, "/api/provinces/"+province.ID.String()+"/save", token, ghost)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result editor.SaveResult
	decodeBody(t, rec, &result)
	require.Equal(t, 0, result.Saved)
	require.Len(t, result.Failures, 1)
	require.Contains(t, result.Failures[0].Error, "does not exist")
}

func TestSaveProvinceRequiresEditAccess(t *testing.T) {
	app, ms := newTestApp(t)
	router := app.Router()
	creator := seedAdmin(t, app, "somchai", "letmein")
	seedAdmin(t, app, "intruder", "letmein")
	province := seedProvince(t, ms, creator.ID, "Chiang Mai")

	token := signIn(t, router, "intruder", "letmein")
	rec := doJSON(t, router, http.MethodPost, "/api/provinces/"+province.ID.String()+"/save", token, province)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdatesFeedNewestFirst(t *testing.T) {
	app, _ := newTestApp(t)
	router := app.Router()
	seedAdmin(t, app, "somchai", "letmein")
	token := signIn(t, router, "somchai", "letmein")

	for _, name := range []string{"Krabi", "Trang", "Satun"} {
		rec := doJSON(t, router, http.MethodPost, "/api/provinces", token, models.Province{NameEN: name})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/updates?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var updates []*models.UpdateRecord
	decodeBody(t, rec, &updates)
	require.Len(t, updates, 2)
	require.Equal(t, "Satun", updates[0].Summary)
	require.Equal(t, "Trang", updates[1].Summary)
	require.Equal(t, "create", updates[0].Action)
	require.Equal(t, "somchai", updates[0].ActorName)

	rec = doJSON(t, router, http.MethodGet, "/api/updates?limit=0", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/api/updates?limit=junk", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
