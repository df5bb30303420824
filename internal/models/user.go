package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleManager:
		return true
	}
	return false
}

type User struct {
	Base
	Name                  string     `gorm:"not null"                    json:"name"`
	Slug                  string     `gorm:"index"                       json:"slug"`
	Email                 string     `gorm:"not null;uniqueIndex"        json:"email"`
	Phone                 string     `json:"phone,omitempty"`
	ProfileImg            string     `json:"profileImg,omitempty"`
	Password              string     `gorm:"not null"                    json:"-"`
	PasswordChangedAt     *time.Time `json:"-"`
	PasswordResetCode     *string    `json:"-"`
	PasswordResetExpires  *time.Time `json:"-"`
	PasswordResetVerified *bool      `json:"-"`
	Role                  Role       `gorm:"size:16;not null;default:'user'" json:"role"`
	Active                bool       `gorm:"not null;default:true"       json:"active"`
	ActivationCode        *string    `json:"-"`
	ActivationExpires     *time.Time `json:"-"`
	Wishlist              []Product  `gorm:"many2many:user_wishlist"     json:"wishlist,omitempty"`
	Addresses             []Address  `json:"addresses,omitempty"`
}

// ChangedPasswordAfter reports whether a token issued at iat predates the
// last password change. Token times carry whole seconds, so a token issued
// within the second of the change is still accepted.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

type Address struct {
	Base
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Alias      string    `gorm:"size:32;not null"         json:"alias"`
	Details    string    `gorm:"not null"                 json:"details"`
	Phone      string    `gorm:"not null"                 json:"phone"`
	City       string    `gorm:"not null"                 json:"city"`
	PostalCode string    `gorm:"size:5;not null"          json:"postalCode"`
}

// SameAs reports whether two addresses carry identical content.
func (a Address) SameAs(o Address) bool {
	return a.Alias == o.Alias && a.Details == o.Details && a.Phone == o.Phone &&
		a.City == o.City && a.PostalCode == o.PostalCode
}
