package models

import "time"

// ParentLock gates every action but unlock while IsLocked is set. The password
// hash lives in the OS keyring; PasswordHash is only filled when it has been
// read from there.
type ParentLock struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	IsLocked     bool      `gorm:"not null" json:"is_locked"`
	PasswordHash string    `gorm:"-" json:"password_hash"`
	LockMessage  string    `gorm:"type:text" json:"lock_message"`
	HasPassword  bool      `gorm:"not null" json:"has_password"`
	UpdatedAt    time.Time `json:"-"`
}

const DefaultLockMessage = "This app is locked. Ask a parent to unlock it."

func DefaultParentLock() ParentLock {
	return ParentLock{ID: 1, LockMessage: DefaultLockMessage}
}

// SetParentLockArgs is the payload of set_parent_lock. CurrentPassword is
// required when Password replaces an existing one.
type SetParentLockArgs struct {
	Password        string `json:"password"`
	CurrentPassword string `json:"current_password,omitempty"`
	LockMessage     string `json:"lock_message"`
}

// PasswordArgs is the payload of unlock_parent_lock and verify_parent_password.
type PasswordArgs struct {
	Password string `json:"password"`
}
