package service

import (
	"fmt"

	"go-fuelstation-pos/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID    uuid.UUID
	Name      string
	RoleCode  string
	StationID *uuid.UUID
}

// SystemActor is used by tooling and seeders
var SystemActor = Actor{Name: "system", RoleCode: model.RoleAdmin}

func (a Actor) IsAdmin() bool {
	return a.RoleCode == model.RoleAdmin
}

// ID returns the value stored in the created_by/updated_by columns
func (a Actor) ID() string {
	if a.UserID == uuid.Nil {
		return "system"
	}
	return a.UserID.String()
}

// CanAccess reports whether the actor may touch data of stationID.
// Admins see every station; everybody else only their own.
func (a Actor) CanAccess(stationID uuid.UUID) bool {
	if a.IsAdmin() {
		return true
	}
	return a.StationID != nil && *a.StationID == stationID
}

func (a Actor) requireStation(stationID uuid.UUID) error {
	if !a.CanAccess(stationID) {
		return fmt.Errorf("%w: station %s is outside your scope", ErrForbidden, stationID)
	}
	return nil
}

func (a Actor) requireAdmin(action string) error {
	if !a.IsAdmin() {
		return fmt.Errorf("%w: %s requires ADMIN", ErrForbidden, action)
	}
	return nil
}

// scopeStation resolves the station filter of a listing: non-admins are pinned
// to their own station whatever they asked for.
func (a Actor) scopeStation(requested *uuid.UUID) (*uuid.UUID, error) {
	if a.IsAdmin() {
		return requested, nil
	}
	if a.StationID == nil {
		return nil, fmt.Errorf("%w: user is not assigned to a station", ErrForbidden)
	}
	if requested != nil && *requested != *a.StationID {
		return nil, fmt.Errorf("%w: station %s is outside your scope", ErrForbidden, *requested)
	}
	return a.StationID, nil
}
