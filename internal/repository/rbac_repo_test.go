package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/testutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedRBAC(t *testing.T, db *gorm.DB) (PrivilegeRepository, RoleRepository) {
	t.Helper()
	ctx := context.Background()
	privileges, roles := NewPrivilegeRepo(db), NewRoleRepo(db)
	if _, err := privileges.Seed(ctx); err != nil {
		t.Fatalf("seed privileges: %v", err)
	}
	if _, err := roles.Seed(ctx); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return privileges, roles
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	privileges, roles := seedRBAC(t, db)

	added, err := privileges.Seed(ctx)
	if err != nil {
		t.Fatalf("reseed privileges: %v", err)
	}
	if added != 0 {
		t.Errorf("reseed added %d privileges, want 0", added)
	}
	granted, err := roles.Seed(ctx)
	if err != nil {
		t.Fatalf("reseed roles: %v", err)
	}
	if len(granted) != 0 {
		t.Errorf("reseed granted %v, want nothing", granted)
	}

	all, err := privileges.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != len(model.DefaultPrivileges) {
		t.Errorf("privileges = %d, want %d", len(all), len(model.DefaultPrivileges))
	}
}

func TestSeedGrantsRoleDefaults(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	privileges, roles := seedRBAC(t, db)

	all, err := privileges.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}

	tests := []struct {
		code      string
		must      string
		mustNot   string
		wantCount int
	}{
		{model.RoleAdmin, model.PrivOwnerMerge, "", len(all)},
		{model.RoleManager, model.PrivReportView, model.PrivOwnerMerge, len(model.PrivilegesForRole(model.RoleManager, all))},
		{model.RoleStaff, model.PrivShiftClose, model.PrivUserCreate, len(model.PrivilegesForRole(model.RoleStaff, all))},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			role, err := roles.FindByCode(ctx, tt.code)
			if err != nil {
				t.Fatalf("FindByCode: %v", err)
			}
			if len(role.Privileges) != tt.wantCount {
				t.Errorf("privileges = %d, want %d", len(role.Privileges), tt.wantCount)
			}
			has := map[string]bool{}
			for _, p := range role.Privileges {
				has[p.Code] = true
			}
			if !has[tt.must] {
				t.Errorf("missing %s", tt.must)
			}
			if tt.mustNot != "" && has[tt.mustNot] {
				t.Errorf("unexpected %s", tt.mustNot)
			}
		})
	}
}

func TestSeedKeepsEditedRole(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	privileges, roles := seedRBAC(t, db)

	staff, err := roles.FindByCode(ctx, model.RoleStaff)
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	only, err := privileges.FindByCodes(ctx, []string{model.PrivShiftView})
	if err != nil {
		t.Fatalf("FindByCodes: %v", err)
	}
	if err := db.Model(staff).Association("Privileges").Replace(only); err != nil {
		t.Fatalf("edit staff role: %v", err)
	}

	if _, err := roles.Seed(ctx); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	staff, err = roles.FindByCode(ctx, model.RoleStaff)
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if len(staff.Privileges) != 1 || staff.Privileges[0].Code != model.PrivShiftView {
		t.Errorf("staff privileges = %v, want only %s", staff.Privileges, model.PrivShiftView)
	}

	none, err := privileges.FindByCodes(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("FindByCodes(nil) = %v, %v, want empty", none, err)
	}
}

func newUser(t *testing.T, users UserRepository, email string, stationID *uuid.UUID) *model.User {
	t.Helper()
	user := &model.User{Email: email, FullName: email, StationID: stationID, IsActive: true}
	if err := user.SetPassword("secret123"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create %s: %v", email, err)
	}
	return user
}

func TestUserRepoListScopesByStation(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)
	a := testutil.Station(t, db, "ST01", 2, 1)
	b := testutil.Station(t, db, "ST02", 2, 1)

	newUser(t, users, "admin@example.com", nil)
	newUser(t, users, "a1@example.com", &a.ID)
	newUser(t, users, "a2@example.com", &a.ID)
	newUser(t, users, "b1@example.com", &b.ID)

	tests := []struct {
		name  string
		scope *uuid.UUID
		want  int
	}{
		{"all", nil, 4},
		{"station a", &a.ID, 2},
		{"station b", &b.ID, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := users.List(ctx, tt.scope)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("users = %d, want %d", len(got), tt.want)
			}
		})
	}

	found, err := users.FindByEmail(ctx, "A1@Example.com")
	if err != nil {
		t.Fatalf("FindByEmail ignores case: %v", err)
	}
	if err := users.Delete(ctx, found.ID, "admin"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := users.Delete(ctx, found.ID, "admin"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second Delete err = %v, want ErrRecordNotFound", err)
	}
	if got, _ := users.List(ctx, &a.ID); len(got) != 1 {
		t.Errorf("station a users after delete = %d, want 1", len(got))
	}
}

func TestUserRepoSessions(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)
	user := newUser(t, users, "staff@example.com", nil)

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := users.StartSession(ctx, user.ID, "v2", start); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	later := start.Add(3 * time.Minute)
	if err := users.Touch(ctx, user.ID, later); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	got, err := users.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.TokenVersion != "v2" {
		t.Errorf("TokenVersion = %q, want v2", got.TokenVersion)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(later) {
		t.Errorf("LastSeenAt = %v, want %v", got.LastSeenAt, later)
	}
}
