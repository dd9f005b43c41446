package pfconfig

import (
	"fmt"
	"log/syslog"
	"os"
	"strings"

	"github.com/andskur/argon2-hashing"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SiteName        string          `yaml:"sitename"`
	Description     string          `yaml:"description"`
	TrustedProxies  []string        `yaml:"trustedproxies"`
	TrustedPlatform string          `yaml:"trustedplatform"`
	Storage         StorageConfig   `yaml:"storage"`
	StaticPath      string          `yaml:"staticpath"`
	ContentPath     string          `yaml:"contentpath"`
	User            UserConfig      `yaml:"user"`
	Production      bool            `yaml:"production"`
	Listen          ListenConfig    `yaml:"listen"`
	Logger          LoggerConfig    `yaml:"logger"`
	Auth            AuthConfig      `yaml:"auth"`
	Backend         BackendConfig   `yaml:"backend"`
	Analytics       AnalyticsConfig `yaml:"analytics"`
}

type LoggerConfig struct {
	Level  string             `yaml:"level"`
	File   LoggerFileConfig   `yaml:"file"`
	Syslog LoggerSyslogConfig `yaml:"syslog"`
}

type LoggerFileConfig struct {
	Enable     bool   `yaml:"enable"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
}

type LoggerSyslogConfig struct {
	Enable   bool            `yaml:"enable"`
	Protocol string          `yaml:"protocol"`
	Address  string          `yaml:"address"`
	Tag      string          `yaml:"tag"`
	Priority syslog.Priority `yaml:"priority"`
}

type ListenConfig struct {
	Website string `yaml:"website"`
	Metrics string `yaml:"metrics"`
}

type UserConfig struct {
	Login string `yaml:"login"`
	Pass  string `yaml:"pass"`
	Hash  string `yaml:"hash"`
}

// StorageConfig décrit le substrat clé/valeur: sqlite, mysql ou redis
type StorageConfig struct {
	Driver string      `yaml:"driver"`
	Path   string      `yaml:"path"`
	Dsn    string      `yaml:"dsn"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	Db   int    `yaml:"db"`
}

type AuthConfig struct {
	// Durée de vie du token admin en heures (24 par défaut)
	TokenTTLHours int `yaml:"tokenttlhours"`
}

type BackendConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeoutseconds"`
}

type AnalyticsConfig struct {
	// Chemin d'une base GeoLite2-Country, vide pour désactiver
	GeoIPPath string `yaml:"geoippath"`
	// Rétention des visites en jours, 0 = journal illimité
	RetentionDays int `yaml:"retentiondays"`
}

func CreateExampleConfig(filename string) (string, error) {
	example := &Config{
		SiteName:    "Mon Portfolio",
		Description: "Portfolio personnel avec blog, poésie et démo IA",
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "./portfolio.db",
		},
		User: UserConfig{
			Login: "admin",
			Pass:  "admin1234",
		},
		StaticPath:  "./static",
		ContentPath: "",
		Production:  false,
		Logger: LoggerConfig{
			Level: "info",
			File: LoggerFileConfig{
				Enable: false,
			},
			Syslog: LoggerSyslogConfig{
				Enable: false,
			},
		},
		Listen: ListenConfig{
			Website: "0.0.0.0:8080",
			Metrics: "0.0.0.0:8090",
		},
		Auth: AuthConfig{
			TokenTTLHours: 24,
		},
		Backend: BackendConfig{
			URL:            "",
			TimeoutSeconds: 30,
		},
	}

	if filename == "/etc/" {
		example.Listen.Website = "127.0.0.1:8000"
		example.Production = true
		example.Storage.Path = "/var/lib/portfolio/portfolio.db"
		example.StaticPath = "/var/lib/portfolio/static"
		example.Logger.File = LoggerFileConfig{
			Enable:     true,
			Path:       "/var/log/portfolio/portfolio.log",
			MaxSize:    100,
			MaxBackups: 30,
			MaxAge:     7,
			Compress:   true,
		}
		filename = "/etc/portfolio/config.yaml"
	}

	return filename, WriteConfigYaml(filename, example)
}

func WriteConfigYaml(filename string, conf *Config) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}

// Charger la configuration YAML
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("impossible de lire le fichier %s: %v", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("erreur de parsing YAML: %v", err)
	}

	return &config, nil
}

// Load charge, valide et normalise la configuration. Si user.pass est
// renseigné en clair, il est hashé en argon2 puis effacé du fichier.
func Load(filename string) (*Config, error) {
	conf, err := LoadConfig(filename)
	if err != nil {
		return nil, fmt.Errorf("erreur chargement config: %v", err)
	}

	if err := validate(conf); err != nil {
		return nil, err
	}

	if conf.Listen.Website == "" {
		conf.Listen.Website = "localhost:8080"
	}
	if strings.HasPrefix(conf.Listen.Website, ":") {
		conf.Listen.Website = "localhost" + conf.Listen.Website
	}
	if conf.Auth.TokenTTLHours <= 0 {
		conf.Auth.TokenTTLHours = 24
	}
	if conf.Backend.TimeoutSeconds <= 0 {
		conf.Backend.TimeoutSeconds = 30
	}

	if conf.User.Pass != "" {
		if len(conf.User.Pass) < 8 {
			return nil, fmt.Errorf("le mot de passe doit contenir au moins 8 caractères")
		}

		hash, err := argon2.GenerateFromPassword([]byte(conf.User.Pass), argon2.DefaultParams)
		if err != nil {
			return nil, err
		}
		conf.User.Hash = string(hash)
		conf.User.Pass = ""
		if err := WriteConfigYaml(filename, conf); err != nil {
			return nil, err
		}
	}

	return conf, nil
}

func validate(conf *Config) error {
	switch conf.Storage.Driver {
	case "sqlite":
		if conf.Storage.Path == "" {
			return fmt.Errorf("storage.path ne peut pas être vide")
		}
	case "mysql":
		if conf.Storage.Dsn == "" {
			return fmt.Errorf("storage.dsn ne peut pas être vide")
		}
	case "redis":
		if conf.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr ne peut pas être vide")
		}
	case "":
		return fmt.Errorf("storage.driver ne peut pas être vide")
	default:
		return fmt.Errorf("le driver de storage doit etre sqlite, mysql ou redis")
	}
	return nil
}

func CreateExample(shouldCreateExample bool, configFile string) {
	// Handle example creation
	if shouldCreateExample {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
		os.Exit(1)
	}

	_, err := os.Stat(configFile)
	if err != nil && os.IsNotExist(err) {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	}
}

func handleExampleCreation(filename string) error {
	if filename == "" {
		filename = "portfolio.yaml"
	}
	filename, err := CreateExampleConfig(filename)
	if err != nil {
		return fmt.Errorf("erreur création exemple: %v", err)
	}

	fmt.Printf("✅ Fichier exemple créé: %s\n", filename)
	fmt.Println("⚠️  user.pass sera automatiquement hashé en argon2 dans user.hash au premier lancement")
	return nil
}
