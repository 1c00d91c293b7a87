package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"

	"health-concierge/backend/pkg/logger"
)

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

const (
	defaultSecretsPath = "secret/data/health-concierge"
	secretCacheTTL     = 5 * time.Minute
)

// VaultManager serves secrets from HashiCorp Vault. When Vault is
// disabled or a key is missing there, lookups fall back to environment
// variables so local development works without a Vault server.
type VaultManager struct {
	client      *vault.Client
	secretsPath string
	enabled     bool
	log         *logger.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewVaultManager builds a manager from VAULT_* environment variables
func NewVaultManager(log *logger.Logger) (*VaultManager, error) {
	m := &VaultManager{
		secretsPath: os.Getenv("VAULT_SECRETS_PATH"),
		enabled:     true,
		log:         log,
		cache:       make(map[string]string),
	}
	if m.secretsPath == "" {
		m.secretsPath = defaultSecretsPath
	}
	switch os.Getenv("VAULT_ENABLED") {
	case "", "true", "1", "yes":
	default:
		m.enabled = false
	}
	if !m.enabled {
		return m, nil
	}

	addr := os.Getenv("VAULT_ADDR")
	token := os.Getenv("VAULT_TOKEN")
	if addr == "" {
		return nil, ErrNoVaultAddress
	}
	if token == "" {
		return nil, ErrNoVaultToken
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = addr
	vaultConfig.Timeout = 10 * time.Second
	vaultConfig.MaxRetries = 3

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(token)
	if ns := os.Getenv("VAULT_NAMESPACE"); ns != "" {
		client.SetNamespace(ns)
	}
	m.client = client

	go m.expireCache()
	return m, nil
}

// GetSecret looks the key up in the cache, then Vault, then the
// environment
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	cached, found := m.cache[key]
	m.mu.RUnlock()
	if found {
		return cached, nil
	}

	if !m.enabled {
		return m.readEnv(key)
	}

	value, err := m.readVault(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			m.log.Warn("Secret not found in Vault, falling back to environment", "key", key)
			return m.readEnv(key)
		}
		return "", err
	}

	m.store(key, value)
	return value, nil
}

// GetSecretWithDefault is GetSecret with a fallback value instead of an
// error
func (m *VaultManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		m.log.Warn("Failed to get secret, using default value",
			"key", key,
			"error", err.Error(),
		)
		return defaultValue
	}
	return value
}

func (m *VaultManager) readVault(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2("secret").Get(ctx, m.secretsPath)
	if err != nil {
		m.log.Error("Failed to read secret from Vault",
			"path", m.secretsPath,
			"error", err.Error(),
		)
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", ErrSecretNotFound
	}
	value, ok := data[key].(string)
	if !ok {
		return "", ErrSecretNotFound
	}
	return value, nil
}

// readEnv maps kebab-case and dotted keys to uppercase underscore form,
// so "oracle-api-key" resolves from ORACLE_API_KEY.
func (m *VaultManager) readEnv(key string) (string, error) {
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
	value := os.Getenv(envKey)
	if value == "" {
		return "", ErrSecretNotFound
	}
	m.store(key, value)
	return value, nil
}

func (m *VaultManager) store(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
}

// expireCache drops everything on a fixed interval so rotated
// credentials are picked up without a restart
func (m *VaultManager) expireCache() {
	ticker := time.NewTicker(secretCacheTTL)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		m.cache = make(map[string]string)
		m.mu.Unlock()
		m.log.Debug("Secret cache cleared")
	}
}
