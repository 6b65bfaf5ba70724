package models

import "time"

// Audit action names recorded for authentication events.
const (
	ActionLoginSuccess   = "login_success"
	ActionLoginFailure   = "login_failure"
	ActionRegister       = "register"
	ActionLogout         = "logout"
	ActionOAuthLogin     = "oauth_login"
	ActionOAuthProvision = "oauth_provision"
	ActionAccountLockout = "account_lockout"
)

// ActionLog is an audit record of an authentication event.
type ActionLog struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    *string   `json:"user_id" gorm:"type:uuid;index"`
	Action    string    `json:"action" gorm:"size:40;not null;index"`
	Source    string    `json:"source" gorm:"size:40;not null"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for the ActionLog model.
func (ActionLog) TableName() string {
	return "action_logs"
}
