package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleHospital Role = "Hospital"
	RoleDoctor   Role = "Doctor"
	RolePatient  Role = "Patient"
)

// Roles lists every role the system knows, in privilege order.
var Roles = []Role{RoleAdmin, RoleHospital, RoleDoctor, RolePatient}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   primitive.ObjectID
	Role Role
}
