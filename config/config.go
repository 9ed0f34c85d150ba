package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	Port          string
	BaseUrl       string
	RedisUrl      string
	DatabaseUrl   string
	DatabaseName  string
	JWTSecret     string
	AdminUsers    []string
	StreamBaseUrl string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	admins := strings.Split(os.Getenv("ADMIN_USERS"), ",")
	if len(admins) == 1 && admins[0] == "" {
		admins = []string{"admin"}
	}

	return &Config{
		Port:          os.Getenv("PORT"),
		BaseUrl:       os.Getenv("BASE_URL"),
		RedisUrl:      os.Getenv("REDIS_URL"),
		DatabaseUrl:   os.Getenv("DB_URI"),
		DatabaseName:  os.Getenv("DB_NAME"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminUsers:    admins,
		StreamBaseUrl: os.Getenv("STREAM_BASE_URL"),
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
	return
}
