package conf

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	Path string
	Port int
)

func LoadEnv(cli *cli.Context) error {
	path := cli.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = homeDir + "/.contactbook"
	}

	Path = path
	Port = cli.Int("port")

	// optional; real environment variables take precedence
	err := godotenv.Load(filepath.Join(path, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path + "/config.yaml")
	if err != nil {
		f, err = os.Open(path + "/config.example.yaml")
		if err != nil {
			return nil, err
		}
	}
	defer f.Close()

	r := NewEnvExpandedReader(f)

	var cfg *Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	Name        string      `yaml:"name"`
	BaseURL     string      `yaml:"baseUrl"`
	Transports  Transports  `yaml:"transports"`
	Persistence Persistence `yaml:"persistence"`
	Cache       Cache       `yaml:"cache"`
	Hashing     Hashing     `yaml:"hashing"`
	EventBus    EventBus    `yaml:"eventBus"`
	Registry    Registry    `yaml:"registry"`
	Log         Log         `yaml:"log"`
}

type Transports struct {
	HTTP RegisterHTTP `yaml:"http"`
	NATS RegisterNATS `yaml:"nats"`
}

type RegisterHTTP struct {
	Enabled  bool
	Internal Instance
	External *Instance
}

func (r *RegisterHTTP) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled  bool      `yaml:"enabled"`
		Internal Instance  `yaml:"internal"`
		External *Instance `yaml:"external"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.Enabled = raw.Enabled
	r.Internal = raw.Internal
	r.External = raw.External

	// default
	if r.Internal.Scheme == "" {
		r.Internal.Scheme = "http"
	}

	if r.Internal.Host == "" {
		r.Internal.Host = "localhost"
	}

	if r.Internal.Port == 0 {
		r.Internal.Port = Port
	}

	if r.Internal.Port == 0 {
		r.Internal.Port = 3000
	}

	return nil
}

// Advertised is the instance other services should reach.
func (r *RegisterHTTP) Advertised() Instance {
	if r.External != nil {
		return *r.External
	}

	return r.Internal
}

type RegisterNATS struct {
	Enabled   bool     `yaml:"enabled"`
	Internal  Instance `yaml:"internal"`
	ReqPrefix string   `yaml:"reqPrefix"`
}

type Instance struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Health Health `yaml:"health"`
}

func (i *Instance) URL() string {
	return i.Scheme + "://" + i.Host + ":" + strconv.Itoa(i.Port)
}

type Health struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type PersistenceDriver int

const (
	MongoDB PersistenceDriver = iota
	BadgerDB
	SQLite
	InMem
)

func ParsePersistenceDriver(driver string) (PersistenceDriver, error) {
	switch driver {
	case "mongo", "mongodb":
		return MongoDB, nil
	case "badger":
		return BadgerDB, nil
	case "sqlite":
		return SQLite, nil
	case "inmem":
		return InMem, nil
	default:
		return -1, errors.New("driver not supported")
	}
}

func (driver PersistenceDriver) String() string {
	switch driver {
	case MongoDB:
		return "mongo"
	case BadgerDB:
		return "badger"
	case SQLite:
		return "sqlite"
	case InMem:
		return "inmem"
	default:
		return "unknown"
	}
}

type Persistence struct {
	Driver     PersistenceDriver
	URI        string
	Name       string
	Collection string
	Host       string
	InMem      bool
	Timeout    time.Duration
}

func (p *Persistence) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Driver     string `yaml:"driver"`
		URI        string `yaml:"uri"`
		Name       string `yaml:"name"`
		Collection string `yaml:"collection"`
		Host       string `yaml:"host"`
		InMem      bool   `yaml:"inmem"`
		Timeout    string `yaml:"timeout"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	driver, err := ParsePersistenceDriver(raw.Driver)
	if err != nil {
		return err
	}

	p.Driver = driver
	p.URI = raw.URI
	p.Name = raw.Name

	p.Collection = raw.Collection
	if raw.Collection == "" {
		p.Collection = "users"
	}

	p.Host = raw.Host
	if raw.Host == "" {
		p.Host = Path
	}

	p.InMem = raw.InMem

	if raw.Timeout == "" {
		p.Timeout = 10 * time.Second
	} else {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return err
		}

		p.Timeout = timeout
	}

	return nil
}

type Cache struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

func (c *Cache) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Enabled = raw.Enabled
	c.Host = raw.Host
	c.Port = raw.Port
	c.Password = raw.Password
	c.DB = raw.DB

	if raw.TTL == "" {
		c.TTL = 5 * time.Minute
	} else {
		ttl, err := time.ParseDuration(raw.TTL)
		if err != nil {
			return err
		}

		c.TTL = ttl
	}

	return nil
}

func (c *Cache) Addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}

	port := c.Port
	if port == 0 {
		port = 6379
	}

	return host + ":" + strconv.Itoa(port)
}

type Hashing struct {
	Cost    int `yaml:"cost"`
	Workers int `yaml:"workers"`
}

type TransportProvider int

const NATS TransportProvider = iota

func ParseTransportProvider(provider string) (TransportProvider, error) {
	switch provider {
	case "nats":
		return NATS, nil
	default:
		return -1, errors.New("provider not supported")
	}
}

func (p TransportProvider) String() string {
	switch p {
	case NATS:
		return "nats"
	default:
		return ""
	}
}

type EventBus struct {
	Enabled  bool
	Provider TransportProvider
	URL      string
	Users    Users
}

func (e *EventBus) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled  bool   `yaml:"enabled"`
		Provider string `yaml:"provider"`
		URL      string `yaml:"url"`
		Users    Users  `yaml:"users"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Provider == "" {
		raw.Provider = NATS.String()
	}

	provider, err := ParseTransportProvider(raw.Provider)
	if err != nil {
		return err
	}

	e.Enabled = raw.Enabled
	e.Provider = provider
	e.URL = raw.URL
	e.Users = raw.Users

	return nil
}

type Users struct {
	Stream Stream
}

type Stream struct {
	Name   string
	Config json.RawMessage
}

func (s *Stream) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name   string
		Config string
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	s.Name = raw.Name
	if raw.Config != "" {
		s.Config = json.RawMessage(raw.Config)
	}

	return nil
}

type Registry struct {
	Enabled bool     `yaml:"enabled"`
	Address string   `yaml:"address"`
	Tags    []string `yaml:"tags"`
}

type Log struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}
