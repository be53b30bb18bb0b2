package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Database struct {
	Driver   string // postgres | sqlite
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	Path     string // sqlite file
}

// DSN builds the postgres connection string. Unused for sqlite.
func (d Database) DSN() string {
	return "host=" + d.Host + " user=" + d.User + " password=" + d.Password +
		" dbname=" + d.Name + " port=" + d.Port + " sslmode=" + d.SSLMode
}

type Client struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

type Config struct {
	Env            string
	Addr           string
	LogLevel       string
	UploadDir      string
	AllowedOrigins []string
	Database       Database
	Client         Client
}

func defaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "warn")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("allowed_origins", "http://localhost:3000")

	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_name", "gradebook")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_path", "gradebook.db")

	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("api_timeout", 5*time.Second)
	v.SetDefault("api_retries", 2)
}

// Load reads .env (if present) and the environment. dotEnv may be empty, in
// which case ".env" in the working directory is tried.
func Load(dotEnv string) (*Config, error) {
	if dotEnv == "" {
		dotEnv = ".env"
	}
	if _, err := os.Stat(dotEnv); err == nil {
		if err := godotenv.Load(dotEnv); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnv)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnv)
	} else {
		log.Printf("config: %s not found, using environment only", dotEnv)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	conf := &Config{
		Env:       strings.ToLower(v.GetString("env")),
		Addr:      v.GetString("addr"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		UploadDir: v.GetString("upload_dir"),
		Database: Database{
			Driver:   strings.ToLower(v.GetString("db_driver")),
			Host:     v.GetString("db_host"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
			Port:     v.GetString("db_port"),
			SSLMode:  v.GetString("db_sslmode"),
			Path:     v.GetString("db_path"),
		},
		Client: Client{
			BaseURL: strings.TrimRight(v.GetString("api_url"), "/"),
			Timeout: v.GetDuration("api_timeout"),
			Retries: v.GetInt("api_retries"),
		},
	}
	for _, origin := range strings.Split(v.GetString("allowed_origins"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			conf.AllowedOrigins = append(conf.AllowedOrigins, origin)
		}
	}

	switch conf.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, errors.Errorf("unsupported DB_DRIVER %q", conf.Database.Driver)
	}
	if conf.Client.Timeout <= 0 {
		return nil, errors.New("API_TIMEOUT must be positive")
	}
	if conf.Client.Retries < 0 {
		conf.Client.Retries = 0
	}
	return conf, nil
}
