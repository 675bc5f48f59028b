package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabaseDriver    string
	DatabasePath      string
	DatabaseDSN       string
	SessionSecret     string
	GinMode           string
	SuperRootUserName string
	SuperRootPassword string
	Location          *time.Location
	Rules             Rules
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 若工作目录存在 .env（或 ENV_FILE 指定的文件）会先行加载，已存在的环境变量不会被覆盖。
func Load() AppConfig {
	loadDotEnv()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DATABASE_DRIVER")))
	if driver == "" {
		driver = "sqlite"
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "teampulse.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "teampulse-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabaseDriver:    driver,
		DatabasePath:      databasePath,
		DatabaseDSN:       strings.TrimSpace(os.Getenv("DATABASE_DSN")),
		SessionSecret:     sessionSecret,
		GinMode:           ginMode,
		SuperRootUserName: strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword: strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
		Location:          loadLocation(os.Getenv("TIMEZONE")),
		Rules:             LoadRules(),
	}
}

func loadDotEnv() {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("config: stat %s: %v", path, err)
		}
		return
	}

	if err := godotenv.Load(path); err != nil {
		log.Printf("config: load %s: %v", path, err)
	}
}

func loadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("config: unknown TIMEZONE %q, falling back to local: %v", name, err)
		return time.Local
	}
	return loc
}
