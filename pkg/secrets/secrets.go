package secrets

import (
	"context"
	"sync"

	"health-concierge/backend/pkg/logger"
)

// Manager resolves credentials such as the oracle API key. Backends may
// be Vault or plain environment variables.
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// GetSecretWithDefault retrieves a secret, falling back when the key
	// is absent from every backend
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

var (
	defaultManager Manager
	managerOnce    sync.Once
)

// ErrManagerNotInitialized is returned by GetSecret before Init
var ErrManagerNotInitialized = Error("secrets manager not initialized")

// Error is a secrets lookup failure
type Error string

func (e Error) Error() string {
	return string(e)
}

// Init sets up the default manager. Vault is optional: when it is not
// configured the manager serves from environment variables only.
func Init(log *logger.Logger) error {
	var err error
	managerOnce.Do(func() {
		manager, initErr := NewVaultManager(log)
		if initErr != nil {
			err = initErr
			return
		}
		defaultManager = manager
	})
	return err
}

// GetSecret retrieves a secret from the default manager
func GetSecret(ctx context.Context, key string) (string, error) {
	if defaultManager == nil {
		return "", ErrManagerNotInitialized
	}
	return defaultManager.GetSecret(ctx, key)
}

// GetSecretWithDefault retrieves a secret from the default manager,
// returning defaultValue when no manager is initialized or the key is
// missing
func GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	if defaultManager == nil {
		return defaultValue
	}
	return defaultManager.GetSecretWithDefault(ctx, key, defaultValue)
}

// SetManager swaps the default manager, used by tests
func SetManager(manager Manager) {
	defaultManager = manager
}
