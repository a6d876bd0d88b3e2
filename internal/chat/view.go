package chat

import "proof/internal/models"

// View is the UI state pushed on events.UIState after every change.
type View struct {
	Ready            bool                   `json:"ready"`
	Status           string                 `json:"status"`
	Models           []string               `json:"models"`
	Model            string                 `json:"model"`
	Prompt           string                 `json:"prompt"`
	Answer           string                 `json:"answer"`
	Busy             bool                   `json:"busy"`
	Streaming        bool                   `json:"streaming"`
	AwaitingApproval bool                   `json:"awaiting_approval"`
	Locked           bool                   `json:"locked"`
	LockMessage      string                 `json:"lock_message,omitempty"`
	Sessions         []models.ChatSession   `json:"sessions"`
	Settings         models.Settings        `json:"settings"`
	KidSafe          models.KidSafeSettings `json:"kid_safe"`
	Network          models.NetworkSettings `json:"network"`
}

func (v View) clone() View {
	v.Models = append([]string(nil), v.Models...)
	v.Sessions = append([]models.ChatSession(nil), v.Sessions...)
	return v
}
