// Package policy decides whether a role may perform an action on a resource.
// Every endpoint consults the same table; nothing else grants access.
package policy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/hospital-api/internal/models"
)

type Action string

const (
	Create Action = "create"
	Read   Action = "read"
	List   Action = "list"
	Update Action = "update"
	Delete Action = "delete"

	// SetActive toggles the isActive flag, on top of Update.
	SetActive Action = "setActive"
)

var Actions = []Action{Create, Read, List, Update, Delete, SetActive}

type Resource string

const (
	User     Resource = "user"
	Hospital Resource = "hospital"
	Patient  Resource = "patient"
	Audit    Resource = "audit"
)

var Resources = []Resource{User, Hospital, Patient, Audit}

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

type rule struct {
	resource Resource
	action   Action
}

func roles(rs ...models.Role) map[models.Role]bool {
	set := make(map[models.Role]bool, len(rs))
	for _, r := range rs {
		set[r] = true
	}
	return set
}

var everyone = roles(models.Roles...)

// table is the complete role grant list. Absent entries deny.
var table = map[rule]map[models.Role]bool{
	{User, Create}: roles(models.RoleAdmin),
	{User, Read}:   roles(models.RoleAdmin, models.RoleHospital),
	{User, List}:   roles(models.RoleAdmin, models.RoleHospital),
	{User, Update}: roles(models.RoleAdmin),
	{User, Delete}: roles(models.RoleAdmin),

	{User, SetActive}: roles(models.RoleAdmin),

	{Hospital, Create}: roles(models.RoleAdmin),
	{Hospital, Read}:   everyone,
	{Hospital, List}:   roles(models.RoleAdmin, models.RoleHospital),
	{Hospital, Update}: roles(models.RoleAdmin, models.RoleHospital),
	{Hospital, Delete}: roles(models.RoleAdmin),

	{Hospital, SetActive}: roles(models.RoleAdmin),

	{Patient, Create}: roles(models.RoleHospital),
	{Patient, Read}:   roles(models.RoleAdmin, models.RoleHospital, models.RoleDoctor),
	{Patient, List}:   roles(models.RoleAdmin, models.RoleHospital, models.RoleDoctor),
	{Patient, Update}: roles(models.RoleHospital, models.RoleDoctor),
	{Patient, Delete}: roles(models.RoleAdmin, models.RoleHospital),

	{Audit, List}: roles(models.RoleAdmin),
}

// selfTable lists the actions a caller may take on a record it owns even
// when its role is not granted by table.
var selfTable = map[rule]bool{
	{User, Read}:    true,
	{User, Update}:  true,
	{User, Delete}:  true,
	{Patient, Read}: true,
}

// Authorize evaluates the role table.
func Authorize(role models.Role, action Action, resource Resource) Decision {
	return Decision(table[rule{resource, action}][role])
}

// SelfPermitted reports whether ownership of the target record can grant
// the action when the role table does not.
func SelfPermitted(action Action, resource Resource) bool {
	return selfTable[rule{resource, action}]
}

// AuthorizeOwner combines the role table with the ownership rule.
func AuthorizeOwner(caller models.Caller, action Action, resource Resource, ownerID primitive.ObjectID) Decision {
	if Authorize(caller.Role, action, resource) {
		return Allow
	}
	if SelfPermitted(action, resource) && !caller.ID.IsZero() && caller.ID == ownerID {
		return Allow
	}
	return Deny
}

// Grants returns the roles allowed to take action on resource.
func Grants(action Action, resource Resource) []models.Role {
	var out []models.Role
	for _, r := range models.Roles {
		if table[rule{resource, action}][r] {
			out = append(out, r)
		}
	}
	return out
}
