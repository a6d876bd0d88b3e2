// Package state owns the process-wide settings, parental lock, kid-safe and
// network singletons on the client side. Components read copies; every
// change goes through an explicit Save* or lock call that persists first and
// replaces the in-memory value after.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"golang.org/x/sync/errgroup"

	"proof/internal/commands"
	"proof/internal/models"
	"proof/internal/stores"
	"proof/internal/transport"
)

const lockUnavailableMessage = "Parental lock state could not be read."

type Container struct {
	t        transport.Transport
	settings *stores.SettingsStore
	log      logger.Logger

	mu      sync.RWMutex
	current models.Settings
	lock    models.ParentLock
	kidSafe models.KidSafeSettings
	network models.NetworkSettings
	loaded  bool
}

func New(t transport.Transport, log logger.Logger) *Container {
	return &Container{
		t:        t,
		settings: stores.NewSettingsStore(t),
		log:      log,
		current:  models.DefaultSettings(),
		lock:     models.DefaultParentLock(),
		kidSafe:  models.DefaultKidSafeSettings(),
		network:  models.DefaultNetworkSettings(),
	}
}

// Load reads all four singletons concurrently. Kid-safe and network failures
// fall back to defaults silently. A settings failure keeps the defaults and is
// returned. A lock that cannot be read is treated as engaged.
func (c *Container) Load(ctx context.Context) error {
	var (
		g        errgroup.Group
		settings models.Settings
		lock     models.ParentLock
		kidSafe  = models.DefaultKidSafeSettings()
		network  = models.DefaultNetworkSettings()
		lockErr  error
	)
	g.Go(func() error {
		s, err := c.settings.Get(ctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		settings = s
		return nil
	})
	g.Go(func() error {
		lockErr = c.t.Invoke(ctx, commands.GetParentLock, nil, &lock)
		return nil
	})
	g.Go(func() error {
		var k models.KidSafeSettings
		if err := c.t.Invoke(ctx, commands.GetKidSafeSettings, nil, &k); err != nil {
			c.debug("kid-safe settings unavailable, using defaults: " + err.Error())
			return nil
		}
		kidSafe = k.Normalized()
		return nil
	})
	g.Go(func() error {
		var n models.NetworkSettings
		if err := c.t.Invoke(ctx, commands.GetNetworkSettings, nil, &n); err != nil {
			c.debug("network settings unavailable, using defaults: " + err.Error())
			return nil
		}
		network = n.Normalized()
		return nil
	})
	err := g.Wait()

	if lockErr != nil {
		c.warn("parental lock unavailable, staying locked: " + lockErr.Error())
		lock = models.DefaultParentLock()
		lock.IsLocked = true
		lock.LockMessage = lockUnavailableMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.current = settings
	}
	c.lock = lock
	c.kidSafe = kidSafe
	c.network = network
	c.loaded = true
	return err
}

func (c *Container) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Container) Settings() models.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Container) ParentLock() models.ParentLock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lock
}

func (c *Container) KidSafe() models.KidSafeSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k := c.kidSafe
	k.AllowedTopics = append([]string(nil), k.AllowedTopics...)
	k.BlockedWords = append([]string(nil), k.BlockedWords...)
	return k
}

func (c *Container) Network() models.NetworkSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.network
}

// SaveSettings validates, persists and then replaces the held settings.
func (c *Container) SaveSettings(ctx context.Context, s models.Settings) error {
	if err := c.settings.Save(ctx, s); err != nil {
		return err
	}
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	return nil
}

func (c *Container) SaveKidSafe(ctx context.Context, k models.KidSafeSettings) error {
	k = k.Normalized()
	if err := k.Validate(); err != nil {
		return err
	}
	if err := c.t.Invoke(ctx, commands.SaveKidSafeSettings, models.SettingsPayload[models.KidSafeSettings]{Settings: k}, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.kidSafe = k
	c.mu.Unlock()
	return nil
}

// SaveNetwork persists n with the master-flag cascade applied.
func (c *Container) SaveNetwork(ctx context.Context, n models.NetworkSettings) error {
	n = n.Normalized()
	if err := c.t.Invoke(ctx, commands.SaveNetworkSettings, models.SettingsPayload[models.NetworkSettings]{Settings: n}, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.network = n
	c.mu.Unlock()
	return nil
}

// SetParentLock stores the password (when given) and engages the lock.
func (c *Container) SetParentLock(ctx context.Context, args models.SetParentLockArgs) error {
	if err := c.t.Invoke(ctx, commands.SetParentLock, args, nil); err != nil {
		return err
	}
	return c.RefreshLock(ctx)
}

// Unlock releases the lock when password is correct. A wrong password
// leaves it engaged and returns false.
func (c *Container) Unlock(ctx context.Context, password string) (bool, error) {
	var ok bool
	if err := c.t.Invoke(ctx, commands.UnlockParentLock, models.PasswordArgs{Password: password}, &ok); err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := c.RefreshLock(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// VerifyParentPassword checks password without touching the lock.
func (c *Container) VerifyParentPassword(ctx context.Context, password string) (bool, error) {
	var ok bool
	if err := c.t.Invoke(ctx, commands.VerifyParentPassword, models.PasswordArgs{Password: password}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Container) RefreshLock(ctx context.Context) error {
	var lock models.ParentLock
	if err := c.t.Invoke(ctx, commands.GetParentLock, nil, &lock); err != nil {
		return err
	}
	c.mu.Lock()
	c.lock = lock
	c.mu.Unlock()
	return nil
}

func (c *Container) debug(msg string) {
	if c.log != nil {
		c.log.Debug("state: " + msg)
	}
}

func (c *Container) warn(msg string) {
	if c.log != nil {
		c.log.Warning("state: " + msg)
	}
}
