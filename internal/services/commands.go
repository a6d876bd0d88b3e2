package services

import (
	"context"
	"encoding/json"
	"time"

	"proof/internal/commands"
	"proof/internal/models"
	"proof/internal/transport"
)

// Register binds every command to its service. pullTimeout bounds model_pull;
// generation is unbounded here and limited by the client's idle timeout.
func (s *Services) Register(r *transport.Router, pullTimeout time.Duration) {
	read := transport.Idempotent()

	r.Handle(commands.OllamaHealth, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.Ollama.Health(ctx), nil
	}, read)
	r.Handle(commands.OllamaEnsure, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, s.Ollama.Ensure(ctx)
	})
	r.Handle(commands.ModelsList, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.Ollama.List(ctx)
	}, read)
	r.Handle(commands.ModelPull, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.ModelRequest
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return nil, s.Ollama.Pull(ctx, req.Args.Model)
	}, transport.WithTimeout(pullTimeout))
	r.Handle(commands.ModelDelete, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.ModelRequest
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return nil, s.Ollama.Delete(ctx, req.Args.Model)
	})
	r.Handle(commands.GenerateText, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.GenerateRequest
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return s.Ollama.GenerateText(ctx, req.Args)
	}, transport.Unbounded())
	r.Handle(commands.GenerateStream, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.GenerateRequest
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return nil, s.Ollama.GenerateStream(ctx, req.Args)
	}, transport.Unbounded())

	r.Handle(commands.GetSettings, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.Settings.Get(ctx)
	}, read)
	r.Handle(commands.SaveSettings, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.SettingsPayload[models.SettingsInput]
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		settings, err := req.Settings.Settings()
		if err != nil {
			return nil, err
		}
		return nil, s.Settings.Save(ctx, settings)
	})

	r.Handle(commands.ListSessions, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.ChatSessions.List(ctx)
	}, read)
	r.Handle(commands.SaveSession, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.SessionPayload
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return nil, s.ChatSessions.Save(ctx, req.Session)
	})
	r.Handle(commands.LoadSession, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.SessionIDArgs
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return s.ChatSessions.Load(ctx, req.ID)
	}, read)
	r.Handle(commands.DeleteSession, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.SessionIDArgs
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return nil, s.ChatSessions.Delete(ctx, req.ID)
	})

	r.Handle(commands.GetParentLock, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.ParentLock.Get(ctx)
	}, read)
	r.Handle(commands.SetParentLock, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args models.SetParentLockArgs
		if err := transport.Decode(raw, &args); err != nil {
			return nil, err
		}
		return nil, s.ParentLock.Set(ctx, args)
	})
	r.Handle(commands.UnlockParentLock, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args models.PasswordArgs
		if err := transport.Decode(raw, &args); err != nil {
			return nil, err
		}
		return s.ParentLock.Unlock(ctx, args.Password)
	})
	r.Handle(commands.CheckParentLock, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.ParentLock.Check(ctx)
	}, read)
	r.Handle(commands.VerifyParentPassword, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args models.PasswordArgs
		if err := transport.Decode(raw, &args); err != nil {
			return nil, err
		}
		return s.ParentLock.Verify(ctx, args.Password)
	})

	r.Handle(commands.GetKidSafeSettings, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.KidSafe.Get(ctx)
	}, read)
	r.Handle(commands.SaveKidSafeSettings, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.SettingsPayload[models.KidSafeSettings]
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return nil, s.KidSafe.Save(ctx, req.Settings)
	})
	r.Handle(commands.CheckKidSafeContent, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args models.ContentCheckArgs
		if err := transport.Decode(raw, &args); err != nil {
			return nil, err
		}
		return s.KidSafe.CheckContent(ctx, args.Prompt)
	}, read)

	r.Handle(commands.GetNetworkSettings, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return s.Network.Get(ctx)
	}, read)
	r.Handle(commands.SaveNetworkSettings, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req models.SettingsPayload[models.NetworkSettings]
		if err := transport.Decode(raw, &req); err != nil {
			return nil, err
		}
		return nil, s.Network.Save(ctx, req.Settings)
	})
	r.Handle(commands.CheckNetworkPermission, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args models.PermissionArgs
		if err := transport.Decode(raw, &args); err != nil {
			return nil, err
		}
		return s.Network.CheckPermission(ctx, args.PermissionType)
	}, read)
}
