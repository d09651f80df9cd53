package models

import "time"

type MemberRole string

const (
	MemberRoleAthlete MemberRole = "athlete"
	MemberRoleCoach   MemberRole = "coach"
	MemberRoleStaff   MemberRole = "staff"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleAthlete, MemberRoleCoach, MemberRoleStaff:
		return true
	}
	return false
}

// TeamMember — запись ростера. Принадлежит ровно одной команде.
type TeamMember struct {
	ID        string     `json:"id"`
	TeamID    string     `json:"team_id"`
	FirstName string     `json:"first_name" validate:"required,max=80"`
	LastName  string     `json:"last_name" validate:"required,max=80"`
	Email     string     `json:"email,omitempty" validate:"omitempty,email"`
	Role      MemberRole `json:"role" validate:"required,oneof=athlete coach staff"`
	Sport     string     `json:"sport,omitempty" validate:"max=60"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	PhotoURL  *string    `json:"photo_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
