package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Patient is linked 1:1 to a User. HospitalID and AssignedDoctor are plain
// references; the referenced documents are resolved only on request.
type Patient struct {
	Record           `bson:",inline"`
	UserID           primitive.ObjectID  `bson:"userId" json:"userId"`
	Age              int                 `bson:"age" json:"age"`
	BloodGroup       string              `bson:"bloodGroup" json:"bloodGroup"`
	MedicalHistory   string              `bson:"medicalHistory" json:"medicalHistory"`
	Allergies        []string            `bson:"allergies" json:"allergies"`
	HospitalID       *primitive.ObjectID `bson:"hospitalId,omitempty" json:"hospitalId,omitempty"`
	EmergencyContact string              `bson:"emergencyContact" json:"emergencyContact"`
	CurrentCondition string              `bson:"currentCondition" json:"currentCondition"`
	Gender           Gender              `bson:"gender" json:"gender"`
	AssignedDoctor   *primitive.ObjectID `bson:"assignedDoctor,omitempty" json:"assignedDoctor,omitempty"`

	User     *User     `bson:"-" json:"user,omitempty"`
	Doctor   *User     `bson:"-" json:"doctor,omitempty"`
	Hospital *Hospital `bson:"-" json:"hospital,omitempty"`
}

type PatientInput struct {
	UserID           string   `json:"userId" validate:"required,objectid"`
	Age              int      `json:"age" validate:"required,gt=0,lte=150"`
	BloodGroup       string   `json:"bloodGroup" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	MedicalHistory   string   `json:"medicalHistory" validate:"required"`
	Allergies        []string `json:"allergies" validate:"required,min=1,dive,required"`
	HospitalID       string   `json:"hospitalId" validate:"omitempty,objectid"`
	EmergencyContact string   `json:"emergencyContact" validate:"required"`
	CurrentCondition string   `json:"currentCondition" validate:"required"`
	Gender           Gender   `json:"gender" validate:"required,oneof=Male Female"`
	AssignedDoctor   string   `json:"assignedDoctor" validate:"omitempty,objectid"`
}

func (in *PatientInput) Build() (*Patient, error) {
	p := &Patient{
		UserID:           oid(in.UserID),
		Age:              in.Age,
		BloodGroup:       in.BloodGroup,
		MedicalHistory:   in.MedicalHistory,
		Allergies:        in.Allergies,
		EmergencyContact: in.EmergencyContact,
		CurrentCondition: in.CurrentCondition,
		Gender:           in.Gender,
	}
	if in.HospitalID != "" {
		id := oid(in.HospitalID)
		p.HospitalID = &id
	}
	if in.AssignedDoctor != "" {
		id := oid(in.AssignedDoctor)
		p.AssignedDoctor = &id
	}
	return p, nil
}

type PatientPatch struct {
	Age              *int     `json:"age" validate:"omitempty,gt=0,lte=150"`
	BloodGroup       *string  `json:"bloodGroup" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	MedicalHistory   *string  `json:"medicalHistory"`
	Allergies        []string `json:"allergies" validate:"omitempty,dive,required"`
	HospitalID       *string  `json:"hospitalId" validate:"omitempty,objectid"`
	EmergencyContact *string  `json:"emergencyContact"`
	CurrentCondition *string  `json:"currentCondition"`
	Gender           *string  `json:"gender" validate:"omitempty,oneof=Male Female"`
	AssignedDoctor   *string  `json:"assignedDoctor" validate:"omitempty,objectid"`
}

func (p *PatientPatch) Normalize() {
	blankAll(&p.BloodGroup, &p.MedicalHistory, &p.HospitalID, &p.EmergencyContact,
		&p.CurrentCondition, &p.Gender, &p.AssignedDoctor)
	if p.Age != nil && *p.Age == 0 {
		p.Age = nil
	}
	if len(p.Allergies) == 0 {
		p.Allergies = nil
	}
}

func (p *PatientPatch) Fields() map[string]any {
	set := map[string]any{}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.BloodGroup != nil {
		set["bloodGroup"] = *p.BloodGroup
	}
	if p.MedicalHistory != nil {
		set["medicalHistory"] = *p.MedicalHistory
	}
	if p.Allergies != nil {
		set["allergies"] = p.Allergies
	}
	if p.HospitalID != nil {
		set["hospitalId"] = oid(*p.HospitalID)
	}
	if p.EmergencyContact != nil {
		set["emergencyContact"] = *p.EmergencyContact
	}
	if p.CurrentCondition != nil {
		set["currentCondition"] = *p.CurrentCondition
	}
	if p.Gender != nil {
		set["gender"] = *p.Gender
	}
	if p.AssignedDoctor != nil {
		set["assignedDoctor"] = oid(*p.AssignedDoctor)
	}
	return set
}
