package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

func TestNewLogger(t *testing.T) {
	assert := assert.New(t)

	log, err := newLogger(conf.Log{Level: "debug", Dev: true})
	if assert.NoError(err) {
		assert.True(log.Core().Enabled(-1))
	}

	log, err = newLogger(conf.Log{Level: "warn"})
	if assert.NoError(err) {
		assert.False(log.Core().Enabled(0))
		assert.True(log.Core().Enabled(1))
	}

	log, err = newLogger(conf.Log{Level: "verbose"})
	if assert.NoError(err) {
		assert.True(log.Core().Enabled(0))
	}
}

func TestRegistration(t *testing.T) {
	assert := assert.New(t)

	cfg := &conf.Config{
		Name:    "contactbook",
		BaseURL: "contactbook.example.com",
		Transports: conf.Transports{
			HTTP: conf.RegisterHTTP{
				Enabled: true,
				Internal: conf.Instance{
					Scheme: "http",
					Host:   "10.0.0.5",
					Port:   3000,
					Health: conf.Health{Enabled: true, Path: "/health"},
				},
			},
		},
		Registry: conf.Registry{
			Enabled: true,
			Tags:    []string{"contactbook", "users"},
		},
	}

	reg := registration(cfg)
	assert.Equal("contactbook-10.0.0.5-3000", reg.ID)
	assert.Equal("contactbook", reg.Name)
	assert.Equal(3000, reg.Port)
	assert.Equal([]string{"contactbook", "users"}, reg.Tags)
	assert.Equal("contactbook.example.com", reg.Meta["base_url"])
	if assert.NotNil(reg.Check) {
		assert.Equal("http://10.0.0.5:3000/health", reg.Check.HTTP)
	}

	cfg.Transports.HTTP.External = &conf.Instance{
		Scheme: "https",
		Host:   "contactbook.example.com",
		Port:   443,
	}

	reg = registration(cfg)
	assert.Equal("contactbook.example.com", reg.Address)
	assert.Nil(reg.Check)

	cfg.BaseURL = ""
	reg = registration(cfg)
	assert.Nil(reg.Meta)
}

func TestNATSURL(t *testing.T) {
	url := natsURL(conf.Instance{Host: "127.0.0.1", Port: 4222})
	assert.Equal(t, "nats://127.0.0.1:4222", url)
}

func TestPrintUsers(t *testing.T) {
	assert := assert.New(t)

	u := user.NewUser(user.Fields{
		user.FieldName:     "Alice",
		user.FieldUsername: "alice",
		user.FieldPassword: "$2a$04$hash",
	})

	var buf bytes.Buffer
	if !assert.NoError(printUsers(&buf, []*user.User{u})) {
		return
	}

	assert.Contains(buf.String(), `"username": "alice"`)
	assert.NotContains(buf.String(), "$2a$04$hash")
	assert.NotEmpty(u.Password)
}
