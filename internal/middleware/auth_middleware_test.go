package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/internal/testutil"
	"go-fuelstation-pos/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const testCookie = "fs_session"

type authFixture struct {
	app   *fiber.App
	db    *gorm.DB
	user  *model.User
	token string
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	jwt.Configure("middleware-test-secret", time.Hour)

	db := testutil.NewDB(t)
	users := repository.NewUserRepo(db)
	ctx := context.Background()

	user := &model.User{Email: "staff@example.com", FullName: "Staff", IsActive: true}
	if err := user.SetPassword("secret123"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := users.StartSession(ctx, user.ID, "v1", time.Now()); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, model.RoleStaff, nil, nil, "v1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	app := fiber.New()
	app.Get("/me", RequireAuth(users, testCookie, 5*time.Minute), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalUserID).(string))
	})
	return &authFixture{app: app, db: db, user: user, token: token}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, f *authFixture)
		header string
		cookie bool
		want   int
	}{
		{name: "bearer token", header: "Bearer ", want: fiber.StatusOK},
		{name: "session cookie", cookie: true, want: fiber.StatusOK},
		{name: "missing token", want: fiber.StatusUnauthorized},
		{name: "malformed header", header: "Token ", want: fiber.StatusUnauthorized},
		{
			name:   "logged in elsewhere",
			header: "Bearer ",
			setup: func(t *testing.T, f *authFixture) {
				if err := f.db.Model(f.user).Update("token_version", "v2").Error; err != nil {
					t.Fatalf("rotate version: %v", err)
				}
			},
			want: fiber.StatusUnauthorized,
		},
		{
			name:   "idle too long",
			header: "Bearer ",
			setup: func(t *testing.T, f *authFixture) {
				if err := f.db.Model(f.user).Update("last_seen_at", time.Now().Add(-10*time.Minute)).Error; err != nil {
					t.Fatalf("age session: %v", err)
				}
			},
			want: fiber.StatusUnauthorized,
		},
		{
			name:   "inactive user",
			header: "Bearer ",
			setup: func(t *testing.T, f *authFixture) {
				if err := f.db.Model(f.user).Update("is_active", false).Error; err != nil {
					t.Fatalf("deactivate: %v", err)
				}
			},
			want: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header+f.token)
			}
			if tt.cookie {
				req.Header.Set("Cookie", testCookie+"="+f.token)
			}
			resp, err := f.app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestPrivilegeGuards(t *testing.T) {
	withPrivileges := func(codes ...string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals(LocalPrivileges, codes)
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	tests := []struct {
		name  string
		have  []string
		guard fiber.Handler
		want  int
	}{
		{"single held", []string{model.PrivReportExport}, RequirePrivilege(model.PrivReportExport), fiber.StatusOK},
		{"single missing", []string{model.PrivReportView}, RequirePrivilege(model.PrivReportExport), fiber.StatusForbidden},
		{"any of view", []string{model.PrivReportView}, RequireAnyPrivilege(model.PrivReportView, model.PrivReportExport), fiber.StatusOK},
		{"any of export", []string{model.PrivReportExport}, RequireAnyPrivilege(model.PrivReportView, model.PrivReportExport), fiber.StatusOK},
		{"any of none", []string{model.PrivShiftOpen}, RequireAnyPrivilege(model.PrivReportView, model.PrivReportExport), fiber.StatusForbidden},
		{"no locals", nil, RequireAnyPrivilege(model.PrivReportView), fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			if tt.have != nil {
				app.Get("/r", withPrivileges(tt.have...), tt.guard, ok)
			} else {
				app.Get("/r", tt.guard, ok)
			}
			resp, err := app.Test(httptest.NewRequest("GET", "/r", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
