// Package model defines the record types shared by the engine, stores and API.
package model

import (
	"strings"
	"time"
)

// Record is a business-contact record that can be compared for duplicates.
// ID is assigned by the store and may be empty for ad-hoc checks.
type Record struct {
	ID        string    `json:"id,omitempty" db:"id"`
	Scope     string    `json:"scope,omitempty" db:"scope"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Street    string    `json:"street,omitempty" db:"street"`
	City      string    `json:"city,omitempty" db:"city"`
	State     string    `json:"state,omitempty" db:"state"`
	ZipCode   string    `json:"zip_code,omitempty" db:"zip_code"`
	Website   string    `json:"website,omitempty" db:"website"`
	Email     string    `json:"email,omitempty" db:"email"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// MergeableFields lists the contact fields that merge fills, in order.
var MergeableFields = []string{"name", "phone", "street", "city", "state", "zip_code", "website", "email"}

// Field returns the value of a mergeable field by its JSON name.
func (r *Record) Field(name string) string {
	switch name {
	case "name":
		return r.Name
	case "phone":
		return r.Phone
	case "street":
		return r.Street
	case "city":
		return r.City
	case "state":
		return r.State
	case "zip_code":
		return r.ZipCode
	case "website":
		return r.Website
	case "email":
		return r.Email
	}
	return ""
}

// SetField assigns a mergeable field by its JSON name. Unknown names are ignored.
func (r *Record) SetField(name, value string) {
	switch name {
	case "name":
		r.Name = value
	case "phone":
		r.Phone = value
	case "street":
		r.Street = value
	case "city":
		r.City = value
	case "state":
		r.State = value
	case "zip_code":
		r.ZipCode = value
	case "website":
		r.Website = value
	case "email":
		r.Email = value
	}
}

// IsEmpty reports whether none of the contact fields carry a value.
func (r *Record) IsEmpty() bool {
	for _, f := range MergeableFields {
		if strings.TrimSpace(r.Field(f)) != "" {
			return false
		}
	}
	return true
}
