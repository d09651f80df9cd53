package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrTeamNotFound       = errors.New("team not found")
	ErrMemberNotFound     = errors.New("roster member not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrInviteNotFound     = errors.New("invite not found")
	ErrMediaItemNotFound  = errors.New("media item not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrTeamNameRequired     = errors.New("team name is required")
	ErrInvalidHexColor      = errors.New("color must be a 6-digit hex string")
	ErrInvalidMemberRole    = errors.New("member role must be athlete, coach or staff")
	ErrInvalidMediaType     = errors.New("unknown media item type")
	ErrStaticItemPositioned = errors.New("sticky notes and comments cannot be freely positioned")
	ErrAttachTargetInvalid  = errors.New("attach target must be a media item on the same board")
	ErrInviteEmailRequired  = errors.New("invite email is required")
	ErrAlreadyMember        = errors.New("user is already a member of this team")

	// Ошибки доступа
	ErrEditForbidden      = errors.New("user has no edit permission on this team")
	ErrOwnerActionOnly    = errors.New("only the team owner can perform this action")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)
