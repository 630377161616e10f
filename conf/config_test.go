package conf

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	assert := assert.New(t)

	os.Setenv("INSTANCE_NAME", "contactbook-test")
	os.Setenv("PERSISTENCE_DRIVER", "badger")
	defer os.Unsetenv("INSTANCE_NAME")
	defer os.Unsetenv("PERSISTENCE_DRIVER")

	cfg, err := LoadConfig("..")
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("contactbook-test", cfg.Name)
	assert.Equal("contactbook.example.com", cfg.BaseURL)

	assert.True(cfg.Transports.HTTP.Enabled)
	assert.Equal(3000, cfg.Transports.HTTP.Internal.Port)
	assert.Equal("/health", cfg.Transports.HTTP.Internal.Health.Path)
	assert.Equal("contactbook.users", cfg.Transports.NATS.ReqPrefix)

	assert.Equal(BadgerDB, cfg.Persistence.Driver)
	assert.Equal("contactbook", cfg.Persistence.Name)
	assert.Equal("users", cfg.Persistence.Collection)
	assert.Equal(10*time.Second, cfg.Persistence.Timeout)

	assert.False(cfg.Cache.Enabled)
	assert.Equal("localhost:6379", cfg.Cache.Addr())
	assert.Equal(5*time.Minute, cfg.Cache.TTL)

	assert.Equal(10, cfg.Hashing.Cost)
	assert.Equal(4, cfg.Hashing.Workers)

	assert.Equal(NATS, cfg.EventBus.Provider)
	assert.Equal("USERS", cfg.EventBus.Users.Stream.Name)
	assert.Contains(string(cfg.EventBus.Users.Stream.Config), "users.>")

	assert.Equal([]string{"contactbook", "users"}, cfg.Registry.Tags)
	assert.Equal("info", cfg.Log.Level)
}

func TestParsePersistenceDriver(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"mongo", "badger", "sqlite", "inmem"} {
		driver, err := ParsePersistenceDriver(name)
		assert.NoError(err)
		assert.Equal(name, driver.String())
	}

	driver, err := ParsePersistenceDriver("mongodb")
	assert.NoError(err)
	assert.Equal(MongoDB, driver)

	_, err = ParsePersistenceDriver("postgres")
	assert.Error(err)
}

func TestEnvExpandedReader(t *testing.T) {
	assert := assert.New(t)

	os.Setenv("CONTACTBOOK_TEST_HOST", "db.internal")
	defer os.Unsetenv("CONTACTBOOK_TEST_HOST")

	input := "host: ${CONTACTBOOK_TEST_HOST}\n" +
		"port: ${CONTACTBOOK_TEST_PORT:-27017}\n" +
		"user: ${CONTACTBOOK_TEST_USER}"

	var sb strings.Builder
	buf := make([]byte, 4) // force several short reads
	r := NewEnvExpandedReader(strings.NewReader(input))
	for {
		n, err := r.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}

	assert.Equal("host: db.internal\nport: 27017\nuser: ", sb.String())
}
