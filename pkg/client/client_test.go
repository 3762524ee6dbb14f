package client_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/siamatlas/siamatlas/internal/blob"
	"github.com/siamatlas/siamatlas/pkg/client"
	"github.com/siamatlas/siamatlas/pkg/models"
	"github.com/siamatlas/siamatlas/pkg/siamatlas"
	"github.com/siamatlas/siamatlas/pkg/store/memory"
)

func newTestServer(t *testing.T) (*siamatlas.App, *httptest.Server) {
	t.Helper()
	app := siamatlas.NewWithStore(memory.New(), blob.NewMemory(), &siamatlas.Config{
		Backend:      siamatlas.BackendMemory,
		MediaBaseURL: "https://media.siamatlas.test",
		ServerPort:   "0",
	})
	seedAccount(t, app, "somchai", models.AdminRoleMaster)

	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)
	return app, srv
}

func seedAccount(t *testing.T, app *siamatlas.App, username string, role models.AdminRole) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, app.Store().CreateAdmin(context.Background(), &models.Admin{
		Username:     username,
		Email:        username + "@siamatlas.test",
		PasswordHash: string(hash),
		Role:         role,
	}))
}

// Drives a full editing round trip through the typed client: sign in, build
// a province with a district and a period, upload media, save, and read the
// audit feed back.
func TestClientEndToEnd(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()
	c := client.NewClient(srv.URL)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "healthy", health["status"])

	auth, err := c.SignIn(ctx, "somchai", "letmein")
	require.NoError(t, err)
	require.Equal(t, "somchai", auth.Admin.Username)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, auth.Admin.ID, me.ID)

	province, err := c.CreateProvince(ctx, &models.Province{
		NameTH:  "เชียงใหม่",
		NameEN:  "Chiang Mai",
		AreaKm2: 20107,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), province.Version)

	district, err := c.CreateDistrict(ctx, &models.District{
		ProvinceID: province.ID,
		NameTH:     "เมืองเชียงใหม่",
		NameEN:     "Mueang Chiang Mai",
		Bounds:     models.Bounds{X: 12, Y: 8, Width: 30, Height: 24},
	})
	require.NoError(t, err)
	require.Equal(t, province.ID, district.ProvinceID)

	province, err = c.AddProvincePeriod(ctx, province.ID, models.HistoricalPeriod{
		Era:       "Lanna Kingdom",
		StartYear: 1296,
		EndYear:   1558,
	})
	require.NoError(t, err)
	require.Len(t, province.Periods, 1)
	require.Equal(t, int64(1), province.Version)

	media, err := c.UploadMedia(ctx, models.MediaImage, "wat-chedi-luang.jpg",
		bytes.NewReader([]byte("jpeg-bytes")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(media.URL, "https://media.siamatlas.test/media/"))

	snapshot, err := c.GetProvince(ctx, province.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Districts, 1)
	snapshot.Districts[0].Color = "#006633"

	result, err := c.SaveProvince(ctx, snapshot)
	require.NoError(t, err)
	require.Equal(t, 1, result.Saved)
	require.Empty(t, result.Failures)
	require.Equal(t, int64(2), result.Version)

	updates, err := c.ListUpdates(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, updates)
	require.Equal(t, "save", updates[0].Action)

	require.NoError(t, c.SignOut(ctx))
	_, err = c.Me(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=401")
}

func TestClientAuthErrors(t *testing.T) {
	_, srv := newTestServer(t)
	ctx := context.Background()
	c := client.NewClient(srv.URL)

	_, err := c.SignIn(ctx, "somchai", "wrong")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=401")

	_, err = c.CreateProvince(ctx, &models.Province{NameEN: "Phuket"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=401")
}

func TestClientCollaborationFlow(t *testing.T) {
	app, srv := newTestServer(t)
	seedAccount(t, app, "malee", models.AdminRoleAdmin)
	ctx := context.Background()

	creator := client.NewClient(srv.URL)
	_, err := creator.SignIn(ctx, "somchai", "letmein")
	require.NoError(t, err)

	province, err := creator.CreateProvince(ctx, &models.Province{NameEN: "Lampang"})
	require.NoError(t, err)

	helper := client.NewClient(srv.URL)
	_, err = helper.SignIn(ctx, "malee", "letmein")
	require.NoError(t, err)

	province.NameEN = "Lampang (Khelang Nakhon)"
	_, err = helper.UpdateProvince(ctx, province)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=403")

	collab, err := helper.CreateCollaborationRequest(ctx, &models.CollaborationRequest{
		TargetKind: models.TargetProvince,
		TargetID:   province.ID.String(),
		Role:       models.RoleEditor,
		Message:    "I can contribute railway-era sources",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, collab.Status)

	listed, err := creator.ListCollaborationRequests(ctx, models.TargetProvince, province.ID.String())
	require.NoError(t, err)
	require.Len(t, listed, 1)

	decided, err := creator.AcceptCollaborationRequest(ctx, collab.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, decided.Status)

	updated, err := helper.UpdateProvince(ctx, province)
	require.NoError(t, err)
	require.Equal(t, "Lampang (Khelang Nakhon)", updated.NameEN)
}
