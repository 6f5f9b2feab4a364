package entity

import "time"

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

type User struct {
	Id        string    `bson:"_id" json:"id"`
	FirstName string    `bson:"firstName" json:"firstName"`
	LastName  string    `bson:"lastName" json:"lastName"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"` // Don't expose password in JSON
	Role      string    `bson:"role" json:"role"`
	Specialty string    `bson:"specialty,omitempty" json:"specialty,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type UserIndexFilter struct {
	Ids []string `bson:"ids"`
}
