package models

import (
	"crypto/sha256"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MembershipRole string

const (
	MembershipRoleOwner  MembershipRole = "owner"
	MembershipRoleMember MembershipRole = "member"
)

// Membership связывает пользователя с командой. Для отправленного, но еще не
// принятого приглашения UserID пустой, а запись ключуется по email.
type Membership struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`
	// UserID сериализуется всегда (без omitempty): запрос "user_id == ''"
	// находит ожидающие приглашения.
	UserID      string         `json:"user_id"`
	InviteEmail string         `json:"invite_email,omitempty"`
	Role        MembershipRole `json:"role"`
	CanEdit     bool           `json:"can_edit"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (m *Membership) Pending() bool {
	return m.UserID == ""
}

// membershipNamespace — фиксированное пространство имен для детерминированных
// идентификаторов членства (uuid v5).
var membershipNamespace = uuid.MustParse("8f9c1d5e-4b7a-4f1e-9c2d-6a0b3e8d7c41")

// MembershipID детерминированно выводит идентификатор членства из пары
// (teamID, userID). Повторный вызов с теми же аргументами дает тот же ID,
// поэтому поиск членства — это точечное чтение, а не запрос.
func MembershipID(teamID, userID string) string {
	return uuid.NewSHA1(membershipNamespace, []byte(teamID+"/"+userID)).String()
}

// PendingMembershipID выводит идентификатор ожидающего приглашения из
// (teamID, hash(email)). Повторное приглашение того же адреса не создает
// дубликат.
func PendingMembershipID(teamID, email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return uuid.NewSHA1(membershipNamespace, append([]byte(teamID+"/"), sum[:16]...)).String()
}
