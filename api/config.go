package api

import (
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/spf13/viper"
	"sync"
)

type Config struct {
	ServerConfig
	StorageConfig
	AuthConfig
	AdminConfig
	EmailConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type StorageConfig struct {
	Driver              string
	TableNameVoters     string
	TableNameCandidates string
	TableNameAuditLogs  string
	VoterEmailIndex     string
}

type AuthConfig struct {
	JWTSecret           string
	EmailDomain         string
	AdminCreationSecret string
}

// AdminConfig drives the idempotent ensure-admin step at startup. When
// either field is empty no bootstrap account is created.
type AdminConfig struct {
	Email    string
	Password string
}

type EmailConfig struct {
	From string
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		ServerConfig: ServerConfig{
			Port: getIntOrDefault("server.port", 8080),
			Env:  getStringOrDefault("server.env", "local"),
		},
		StorageConfig: StorageConfig{
			Driver:              getStringOrDefault("storage.driver", "dynamo"),
			TableNameVoters:     getStringOrDefault("storage.tableNameVoters", "Voters"),
			TableNameCandidates: getStringOrDefault("storage.tableNameCandidates", "Candidates"),
			TableNameAuditLogs:  getStringOrDefault("storage.tableNameAuditLogs", "AuditLogs"),
			VoterEmailIndex:     getStringOrDefault("storage.voterEmailIndex", "EmailIndex"),
		},
		AuthConfig: AuthConfig{
			JWTSecret:           getString("auth.jwtSecret"),
			EmailDomain:         getStringOrDefault("auth.emailDomain", "@nmamit.in"),
			AdminCreationSecret: getStringOrDefault("auth.adminCreationSecret", ""),
		},
		AdminConfig: AdminConfig{
			Email:    getStringOrDefault("admin.email", ""),
			Password: getStringOrDefault("admin.password", ""),
		},
		EmailConfig: EmailConfig{
			From: getStringOrDefault("email.from", ""),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

// Production reports whether the service runs with production hardening
// (rate limits on).
func (c *ServerConfig) Production() bool {
	return c.Env == "production"
}

func getString(name string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Fatalf("required environment variable '%s' is missing", name)
	return ""
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
