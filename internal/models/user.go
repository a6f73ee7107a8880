package models

import "strings"

type User struct {
	Record       `bson:",inline"`
	Email        string `bson:"email" json:"email"`
	Password     string `bson:"password" json:"-"` // bcrypt hash, hidden from JSON responses
	FullName     string `bson:"fullName" json:"fullName"`
	MobileNumber string `bson:"mobileNumber" json:"mobileNumber,omitempty"`
	Role         Role   `bson:"role" json:"role"`
	RefreshToken string `bson:"refreshToken" json:"-"`
}

// UserInput is the payload an Admin uses to create an account of any role.
type UserInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FullName     string `json:"fullName" validate:"required"`
	MobileNumber string `json:"mobileNumber" validate:"omitempty,max=20"`
	Role         Role   `json:"role" validate:"required,oneof=Admin Hospital Doctor Patient"`
}

func (in *UserInput) Build() (*User, error) {
	return &User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Password:     in.Password,
		FullName:     strings.TrimSpace(in.FullName),
		MobileNumber: in.MobileNumber,
		Role:         in.Role,
	}, nil
}

// RegisterInput is the public self-registration payload. It only creates
// Patient accounts; other roles are granted by an Admin.
type RegisterInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FullName     string `json:"fullName" validate:"required"`
	MobileNumber string `json:"mobileNumber" validate:"omitempty,max=20"`
	Role         Role   `json:"role" validate:"omitempty,oneof=Patient"`
}

func (in *RegisterInput) Build() (*User, error) {
	role := in.Role
	if role == "" {
		role = RolePatient
	}
	return (&UserInput{
		Email:        in.Email,
		Password:     in.Password,
		FullName:     in.FullName,
		MobileNumber: in.MobileNumber,
		Role:         role,
	}).Build()
}

type UserPatch struct {
	FullName     *string `json:"fullName"`
	Email        *string `json:"email" validate:"omitempty,email"`
	MobileNumber *string `json:"mobileNumber" validate:"omitempty,max=20"`
	IsActive     *bool   `json:"isActive"`
}

func (p *UserPatch) Normalize() {
	blankAll(&p.FullName, &p.Email, &p.MobileNumber)
}

func (p *UserPatch) Fields() map[string]any {
	set := map[string]any{}
	if p.FullName != nil {
		set["fullName"] = strings.TrimSpace(*p.FullName)
	}
	if p.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.MobileNumber != nil {
		set["mobileNumber"] = *p.MobileNumber
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	return set
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}
