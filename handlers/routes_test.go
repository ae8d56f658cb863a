package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"union-registration-system/mailer"
	"union-registration-system/models"
	"union-registration-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	routesSecret  = "routes-test-secret"
	eventsToken   = "routes-events-token"
	unionPassword = "odisha@itka2020"
)

type nullTransport struct{}

func (nullTransport) Send(mailer.Message) error { return nil }

func signSessionToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routesSecret))
	require.NoError(t, err)
	return token
}

// newRoutesApp wires every route group in the same order main does, so the
// tests exercise the real registration sequence.
func newRoutesApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", routesSecret)
	t.Setenv("EVENTS_SERVICE_TOKEN", eventsToken)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Union{},
		&models.UnionAchievement{},
		&models.UnionGalleryImage{},
		&models.Player{},
		&models.Competition{},
		&models.CompetitionRegistration{},
		&models.CompetitionPlayerSnapshot{},
		&models.BeltPromotionTest{},
		&models.PromotionTestGroup{},
		&models.PromotionPlayerSnapshot{},
		&models.EmailOutbox{},
	))

	dispatcher := mailer.NewDispatcher(nullTransport{})
	exportService := services.NewExportService(db)

	app := fiber.New()
	SetupUnionRoutes(app, services.NewUnionService(db, dispatcher))
	SetupPlayerRoutes(app, services.NewPlayerService(db, dispatcher))
	SetupCompetitionRoutes(app, services.NewCompetitionService(db), exportService)
	SetupPromotionRoutes(app, services.NewPromotionService(db), exportService)
	return app, db
}

func seedRouteUnion(t *testing.T, db *gorm.DB, status string) *models.Union {
	t.Helper()
	union := &models.Union{
		ID:            uuid.NewString(),
		Email:         uuid.NewString() + "@union.test",
		State:         "Odisha",
		District:      "Khordha",
		SecretaryName: "Route Secretary",
		Status:        status,
	}
	if status == models.StatusApproved {
		union.Password = unionPassword
	}
	require.NoError(t, db.Create(union).Error)
	return union
}

func seedRoutePlayer(t *testing.T, db *gorm.DB, unionID, status string) *models.Player {
	t.Helper()
	player := &models.Player{
		ID:        uuid.NewString(),
		Email:     uuid.NewString() + "@player.test",
		UnionID:   unionID,
		Name:      "Route Player",
		BeltLevel: "White",
		Status:    status,
	}
	if status == models.StatusApproved {
		code := "ITKA" + uuid.NewString()[:10]
		player.PlayerCode = &code
		player.Password = unionPassword
	}
	require.NoError(t, db.Create(player).Error)
	return player
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	app, db := newRoutesApp(t)
	union := seedRouteUnion(t, db, models.StatusApproved)
	player := seedRoutePlayer(t, db, union.ID, models.StatusApproved)
	require.NoError(t, db.Create(&models.Competition{
		ID:        uuid.NewString(),
		Title:     "State Open",
		Category:  "Championship",
		EventDate: time.Now().AddDate(0, 1, 0),
	}).Error)

	for _, path := range []string{
		"/unions/" + union.ID,
		"/unions/by-district?state=Odisha",
		"/unions/by-email?email=" + url.QueryEscape(union.Email),
		"/unions/" + union.ID + "/players",
		"/unions/" + union.ID + "/registrations",
		"/unions/" + union.ID + "/promotion-tests",
		"/players/" + player.ID,
		"/players/" + player.ID + "/promotion-tests",
		"/competitions",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err, path)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func TestPublicRegistrationNeedsNoToken(t *testing.T) {
	app, db := newRoutesApp(t)
	union := seedRouteUnion(t, db, models.StatusApproved)

	form := url.Values{
		"email":      {"route.player@example.com"},
		"union_id":   {union.ID},
		"name":       {"New Player"},
		"belt_level": {"White"},
	}
	req := httptest.NewRequest("POST", "/players/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	form = url.Values{
		"email":          {"route.union@example.com"},
		"state":          {"Kerala"},
		"district":       {"Kochi"},
		"secretary_name": {"New Secretary"},
	}
	req = httptest.NewRequest("POST", "/unions/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	app, db := newRoutesApp(t)
	union := seedRouteUnion(t, db, models.StatusApproved)

	for _, r := range []struct{ method, path string }{
		{"PUT", "/unions/" + union.ID},
		{"PUT", "/players/" + uuid.NewString()},
		{"POST", "/registrations"},
		{"POST", "/promotion-tests"},
	} {
		resp, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
		require.NoError(t, err, r.path)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, r.path)
	}

	req := httptest.NewRequest("PUT", "/unions/"+union.ID, strings.NewReader(`{"phone":"9990001111"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "secretary-1", "secretary"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	app, db := newRoutesApp(t)
	player := seedRoutePlayer(t, db, seedRouteUnion(t, db, models.StatusApproved).ID, models.StatusPending)

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/unions", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/admin/unions", nil)
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "secretary-1", "secretary"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/unions", nil)
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "admin-1", "admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("POST", "/admin/players/"+player.ID+"/approve", nil)
	req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "admin-1", "admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"password"`)

	var approved models.Player
	require.NoError(t, db.First(&approved, "id = ?", player.ID).Error)
	assert.Equal(t, models.StatusApproved, approved.Status)
}

func TestInternalCompetitionRouteUsesServiceToken(t *testing.T) {
	app, _ := newRoutesApp(t)

	newReq := func(auth string) *http.Request {
		req := httptest.NewRequest("POST", "/internal/competitions",
			strings.NewReader(`{"title":"National Cup","category":"Championship"}`))
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		return req
	}

	for _, tc := range []struct {
		name string
		auth string
		want int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong token", "Bearer nope", fiber.StatusUnauthorized},
		{"reviewer token is not a service token", "Bearer " + signSessionToken(t, "admin-1", "admin"), fiber.StatusUnauthorized},
		{"bearer service token", "Bearer " + eventsToken, fiber.StatusCreated},
		{"raw service token", eventsToken, fiber.StatusCreated},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(newReq(tc.auth))
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestPasswordHiddenOnPublicReads(t *testing.T) {
	app, db := newRoutesApp(t)
	union := seedRouteUnion(t, db, models.StatusApproved)
	player := seedRoutePlayer(t, db, union.ID, models.StatusApproved)

	for _, path := range []string{
		"/unions/" + union.ID,
		"/unions/by-email?email=" + url.QueryEscape(union.Email),
		"/players/" + player.ID,
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err, path)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, path)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotContains(t, string(body), unionPassword, path)
		assert.NotContains(t, string(body), `"password"`, path)
	}
}
