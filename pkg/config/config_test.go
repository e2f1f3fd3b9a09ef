package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.Inventory.StorageDriver)
	assert.Equal(t, 3, cfg.Inventory.LockRetries)
	assert.Equal(t, 2*time.Second, cfg.DB.LockTimeout)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "MEMORY")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("DB_LOCK_TIMEOUT_MS", "500")
	v.Set("INVENTORY_LOCK_RETRIES", "-2")
	v.Set("CATALOG_FILE", "catalogo.csv")
	v.Set("CATALOG_LATIN1", "true")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Inventory.StorageDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 500*time.Millisecond, cfg.DB.LockTimeout)
	assert.Equal(t, 0, cfg.Inventory.LockRetries)
	assert.Equal(t, "catalogo.csv", cfg.Inventory.CatalogFile)
	assert.True(t, cfg.Inventory.CatalogLatin1)
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "mysql")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "insumos", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/insumos?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
