package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Address struct {
	State   string `bson:"state" json:"state" validate:"required"`
	City    string `bson:"city" json:"city" validate:"required"`
	Pincode string `bson:"pincode" json:"pincode" validate:"required"`
}

// Hospital refers to its facilities, doctors and beds by identifier only;
// it does not own them.
type Hospital struct {
	Record        `bson:",inline"`
	Name          string               `bson:"name" json:"name"`
	Address       Address              `bson:"address" json:"address"`
	SpecializedIn []string             `bson:"specializedIn" json:"specializedIn"`
	ContactNumber string               `bson:"contactNumber" json:"contactNumber,omitempty"`
	Facilities    []primitive.ObjectID `bson:"facilities" json:"facilities"`
	Doctors       []primitive.ObjectID `bson:"doctors" json:"doctors"`
	Beds          []primitive.ObjectID `bson:"beds" json:"beds"`
}

type HospitalInput struct {
	Name          string   `json:"name" validate:"required"`
	Address       *Address `json:"address" validate:"required"`
	SpecializedIn []string `json:"specializedIn" validate:"omitempty,dive,required"`
	ContactNumber string   `json:"contactNumber" validate:"omitempty,max=20"`
	Facilities    []string `json:"facilities" validate:"omitempty,dive,objectid"`
	Doctors       []string `json:"doctors" validate:"omitempty,dive,objectid"`
	Beds          []string `json:"beds" validate:"omitempty,dive,objectid"`
}

func (in *HospitalInput) Build() (*Hospital, error) {
	h := &Hospital{
		Name:          in.Name,
		Address:       *in.Address,
		SpecializedIn: in.SpecializedIn,
		ContactNumber: in.ContactNumber,
		Facilities:    oids(in.Facilities),
		Doctors:       oids(in.Doctors),
		Beds:          oids(in.Beds),
	}
	if h.SpecializedIn == nil {
		h.SpecializedIn = []string{}
	}
	return h, nil
}

type AddressPatch struct {
	State   *string `json:"state"`
	City    *string `json:"city"`
	Pincode *string `json:"pincode"`
}

type HospitalPatch struct {
	Name          *string       `json:"name"`
	Address       *AddressPatch `json:"address"`
	SpecializedIn []string      `json:"specializedIn" validate:"omitempty,dive,required"`
	ContactNumber *string       `json:"contactNumber" validate:"omitempty,max=20"`
	Doctors       []string      `json:"doctors" validate:"omitempty,dive,objectid"`
	Beds          []string      `json:"beds" validate:"omitempty,dive,objectid"`
	Facilities    []string      `json:"facilities" validate:"omitempty,dive,objectid"`
	IsActive      *bool         `json:"isActive"`
}

func (p *HospitalPatch) Normalize() {
	blankAll(&p.Name, &p.ContactNumber)
	if p.Address != nil {
		blankAll(&p.Address.State, &p.Address.City, &p.Address.Pincode)
		if p.Address.State == nil && p.Address.City == nil && p.Address.Pincode == nil {
			p.Address = nil
		}
	}
	if len(p.SpecializedIn) == 0 {
		p.SpecializedIn = nil
	}
	if len(p.Doctors) == 0 {
		p.Doctors = nil
	}
	if len(p.Beds) == 0 {
		p.Beds = nil
	}
	if len(p.Facilities) == 0 {
		p.Facilities = nil
	}
}

func (p *HospitalPatch) Fields() map[string]any {
	set := map[string]any{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Address != nil {
		if p.Address.State != nil {
			set["address.state"] = *p.Address.State
		}
		if p.Address.City != nil {
			set["address.city"] = *p.Address.City
		}
		if p.Address.Pincode != nil {
			set["address.pincode"] = *p.Address.Pincode
		}
	}
	if p.SpecializedIn != nil {
		set["specializedIn"] = p.SpecializedIn
	}
	if p.ContactNumber != nil {
		set["contactNumber"] = *p.ContactNumber
	}
	if p.Doctors != nil {
		set["doctors"] = oids(p.Doctors)
	}
	if p.Beds != nil {
		set["beds"] = oids(p.Beds)
	}
	if p.Facilities != nil {
		set["facilities"] = oids(p.Facilities)
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	return set
}
