package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// 数据库驱动
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config 对应 config.xml，环境变量优先
type Config struct {
	XMLName    xml.Name      `xml:"config"`
	MainRouter string        `xml:"MainRouter" env:"DROPMAP_ADDR"`
	Driver     string        `xml:"driver" env:"DROPMAP_DB_DRIVER"`
	Host       string        `xml:"host" env:"DROPMAP_DB_HOST"`
	Port       string        `xml:"port" env:"DROPMAP_DB_PORT"`
	Dbname     string        `xml:"dbname" env:"DROPMAP_DB_NAME"`
	Username   string        `xml:"user" env:"DROPMAP_DB_USER"`
	Password   string        `xml:"password" env:"DROPMAP_DB_PASSWORD"`
	SQLitePath string        `xml:"sqlitepath" env:"DROPMAP_SQLITE_PATH"`
	Debug      bool          `xml:"debug" env:"DROPMAP_DEBUG"`
	SessionTTL time.Duration `xml:"-" env:"DROPMAP_SESSION_TTL"`
}

// Default 原版固定的连接参数
func Default() Config {
	return Config{
		MainRouter: ":8080",
		Driver:     DriverPostgres,
		Host:       "localhost",
		Port:       "5432",
		Dbname:     "postgres",
		Username:   "guest",
		Password:   "password",
		SQLitePath: "dropmap.db",
		SessionTTL: 30 * time.Minute,
	}
}

// Load 读取 XML 配置文件并叠加环境变量；文件不存在时使用默认值
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		xmlFile, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Printf("config file %s not found, using defaults", path)
		case err != nil:
			return cfg, fmt.Errorf("open config: %w", err)
		default:
			defer xmlFile.Close()
			if err := xml.NewDecoder(xmlFile).Decode(&cfg); err != nil {
				return cfg, fmt.Errorf("decode config: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	case "":
		cfg.Driver = DriverPostgres
	default:
		return cfg, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = Default().SessionTTL
	}
	return cfg, nil
}

// DSN 按驱动拼接连接串
func (c Config) DSN() string {
	switch c.Driver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", c.Username, c.Password, c.Host, c.Port, c.Dbname)
	case DriverSQLite:
		return c.SQLitePath
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", c.Host, c.Username, c.Password, c.Dbname, c.Port)
	}
}
