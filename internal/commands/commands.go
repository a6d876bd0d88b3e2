// Package commands names the backend commands shared by both sides of the
// transport.
package commands

// Wire names of the backend commands.
const (
	OllamaHealth           = "ollama_health"
	OllamaEnsure           = "ollama_ensure"
	ModelsList             = "models_list"
	ModelPull              = "model_pull"
	ModelDelete            = "model_delete"
	GenerateText           = "generate_text"
	GenerateStream         = "generate_stream"
	GetSettings            = "get_settings"
	SaveSettings           = "save_settings"
	ListSessions           = "list_sessions"
	SaveSession            = "save_session"
	LoadSession            = "load_session"
	DeleteSession          = "delete_session"
	GetParentLock          = "get_parent_lock"
	SetParentLock          = "set_parent_lock"
	UnlockParentLock       = "unlock_parent_lock"
	CheckParentLock        = "check_parent_lock"
	VerifyParentPassword   = "verify_parent_password"
	GetKidSafeSettings     = "get_kidsafe_settings"
	SaveKidSafeSettings    = "save_kidsafe_settings"
	CheckKidSafeContent    = "check_kidsafe_content"
	GetNetworkSettings     = "get_network_settings"
	SaveNetworkSettings    = "save_network_settings"
	CheckNetworkPermission = "check_network_permission"
)
