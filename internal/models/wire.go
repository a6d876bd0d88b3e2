package models

// Command payloads wrap their arguments the way the frontend sends them:
// model and generation commands under "args", saves under the entity name.

type ModelRequest struct {
	Args ModelArgs `json:"args"`
}

type GenerateRequest struct {
	Args GenerateArgs `json:"args"`
}

type SettingsPayload[T any] struct {
	Settings T `json:"settings"`
}

type SessionPayload struct {
	Session ChatSession `json:"session"`
}

type SessionIDArgs struct {
	ID string `json:"id"`
}
