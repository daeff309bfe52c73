package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a User can hold.
const (
	RolePatient  = "patient"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type User struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name             string               `bson:"name" json:"name"`
	Email            string               `bson:"email" json:"email"`
	Password         string               `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role             string               `bson:"role" json:"role"`
	BasicInfo        *BasicInfo           `bson:"basicInfo,omitempty" json:"basicInfo,omitempty"`
	HealthInfo       *HealthInfo          `bson:"healthInfo,omitempty" json:"healthInfo,omitempty"`
	ProviderInfo     *ProviderInfo        `bson:"providerInfo,omitempty" json:"providerInfo,omitempty"`
	AssignedProvider *primitive.ObjectID  `bson:"assignedProvider,omitempty" json:"assignedProvider,omitempty"`
	AssignedPatients []primitive.ObjectID `bson:"assignedPatients" json:"assignedPatients"`
	ConsentGiven     bool                 `bson:"consentGiven" json:"consentGiven"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
}

// HasPatient reports whether id is in the provider's patient set.
func (u *User) HasPatient(id primitive.ObjectID) bool {
	for _, p := range u.AssignedPatients {
		if p == id {
			return true
		}
	}
	return false
}

type BasicInfo struct {
	Age           int     `bson:"age,omitempty" json:"age,omitempty"`
	ContactNumber string  `bson:"contactNumber,omitempty" json:"contactNumber,omitempty"`
	Gender        string  `bson:"gender,omitempty" json:"gender,omitempty"`
	Height        float64 `bson:"height,omitempty" json:"height,omitempty"`
	Weight        float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	BloodGroup    string  `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
}

type HealthInfo struct {
	Conditions       []string          `bson:"conditions" json:"conditions"`
	Allergies        []string          `bson:"allergies" json:"allergies"`
	Medications      []string          `bson:"medications" json:"medications"`
	MedicalHistory   string            `bson:"medicalHistory,omitempty" json:"medicalHistory,omitempty"`
	EmergencyContact *EmergencyContact `bson:"emergencyContact,omitempty" json:"emergencyContact,omitempty"`
}

type EmergencyContact struct {
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty"`
	Relationship string `bson:"relationship,omitempty" json:"relationship,omitempty"`
}

type ProviderInfo struct {
	LicenseNumber       string        `bson:"licenseNumber,omitempty" json:"licenseNumber,omitempty"`
	Specialization      string        `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Qualification       string        `bson:"qualification,omitempty" json:"qualification,omitempty"`
	YearsOfExperience   int           `bson:"yearsOfExperience,omitempty" json:"yearsOfExperience,omitempty"`
	ClinicName          string        `bson:"clinicName,omitempty" json:"clinicName,omitempty"`
	HospitalAffiliation string        `bson:"hospitalAffiliation,omitempty" json:"hospitalAffiliation,omitempty"`
	Location            *Location     `bson:"location,omitempty" json:"location,omitempty"`
	ContactInfo         *ContactInfo  `bson:"contactInfo,omitempty" json:"contactInfo,omitempty"`
	Availability        *Availability `bson:"availability,omitempty" json:"availability,omitempty"`
	Languages           []string      `bson:"languages,omitempty" json:"languages,omitempty"`
	ServicesOffered     []string      `bson:"servicesOffered,omitempty" json:"servicesOffered,omitempty"`
	Bio                 string        `bson:"bio,omitempty" json:"bio,omitempty"`
}

type Location struct {
	Address Address `bson:"address" json:"address"`
}

type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

type ContactInfo struct {
	Phone          string `bson:"phone,omitempty" json:"phone,omitempty"`
	AlternatePhone string `bson:"alternatePhone,omitempty" json:"alternatePhone,omitempty"`
	OfficeEmail    string `bson:"officeEmail,omitempty" json:"officeEmail,omitempty"`
	Website        string `bson:"website,omitempty" json:"website,omitempty"`
}

type Availability struct {
	WorkingDays     []string      `bson:"workingDays,omitempty" json:"workingDays,omitempty"`
	WorkingHours    *WorkingHours `bson:"workingHours,omitempty" json:"workingHours,omitempty"`
	ConsultationFee float64       `bson:"consultationFee,omitempty" json:"consultationFee,omitempty"`
}

type WorkingHours struct {
	Start string `bson:"start,omitempty" json:"start,omitempty"` // e.g. "09:00"
	End   string `bson:"end,omitempty" json:"end,omitempty"`
}

// UserRef is the populated form of a user reference.
type UserRef struct {
	ID             primitive.ObjectID `json:"_id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Specialization string             `json:"specialization,omitempty"`
}

// Ref returns the populated reference for u.
func (u *User) Ref() UserRef {
	ref := UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	if u.ProviderInfo != nil {
		ref.Specialization = u.ProviderInfo.Specialization
	}
	return ref
}
