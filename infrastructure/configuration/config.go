package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/akihito104/yttt-sub001/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	YouTube     YouTube     `json:"youtube"`
	Twitch      Twitch      `json:"twitch"`
	Sync        Sync        `json:"sync"`
	Notifier    Notifier    `json:"notifier"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Worker      Worker      `json:"worker"`
}

type App struct {
	Port        int      `json:"port"`
	SecretKey   string   `json:"secretKey"`
	TLSEnabled  bool     `json:"tlsEnabled"`
	TLSCertFile string   `json:"tlsCertFile"`
	TLSKeyFile  string   `json:"tlsKeyFile"`
	CORSOrigins []string `json:"corsOrigins"`
}

type Database struct {
	Psql Db `json:"psql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

func (r RedisClient) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type Logger struct {
	Level string `json:"level"`
}

type YouTube struct {
	APIKey       string `json:"apiKey"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

type Twitch struct {
	BaseURL           string  `json:"baseURL"`
	ClientID          string  `json:"clientId"`
	ClientSecret      string  `json:"clientSecret"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	Burst             int     `json:"burst"`
}

// Sync holds the TTLs used where the remote response carries none.
type Sync struct {
	SubscriptionsMaxAge   time.Duration `json:"subscriptionsMaxAge"`
	FollowedStreamsMaxAge time.Duration `json:"followedStreamsMaxAge"`
	FollowingsMaxAge      time.Duration `json:"followingsMaxAge"`
	ChannelMaxAge         time.Duration `json:"channelMaxAge"`
	VideoMaxAge           time.Duration `json:"videoMaxAge"`
	ScheduleMaxAge        time.Duration `json:"scheduleMaxAge"`
	EmptyScheduleMaxAge   time.Duration `json:"emptyScheduleMaxAge"`
	ChannelSectionsTTL    time.Duration `json:"channelSectionsTTL"`
	TimelineVideoLimit    int           `json:"timelineVideoLimit"`
}

// Notifier selects where sync events go: "pubsub", "servicebus" or empty.
type Notifier struct {
	Kind string `json:"kind"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	ConnectionString string `json:"connectionString"`
	Namespace        string `json:"namespace"`
	Queue            string `json:"queue"`
}

// Worker configures the background queue. The *Every fields are asynq
// scheduler cronspecs ("@every 15m" or cron lines); "-" disables the job.
type Worker struct {
	Enabled              bool   `json:"enabled"`
	Concurrency          int    `json:"concurrency"`
	SubscriptionsEvery   string `json:"subscriptionsEvery"`
	FollowedStreamsEvery string `json:"followedStreamsEvery"`
	FollowingsEvery      string `json:"followingsEvery"`
	UploadsEvery         string `json:"uploadsEvery"`
	CleanupEvery         string `json:"cleanupEvery"`
}

var C Config

func init() {
	Reload()
}

// Reload re-reads the config file and environment into C. Call it after env
// files were loaded so their values are picked up.
func Reload() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initSync(&C)
	if C.Logger.Level != "" {
		logger.SetLevel(C.Logger.Level)
	}
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	C.Database.Psql.Name = getConfigValue(C.Database.Psql.Name, "DB_NAME", "")
	C.Database.Psql.Host = getConfigValue(C.Database.Psql.Host, "DB_HOST", "localhost")
	C.Database.Psql.Port = getConfigValue(C.Database.Psql.Port, "DB_PORT", "5432")
	C.Database.Psql.User = getConfigValue(C.Database.Psql.User, "DB_USER", "postgres")
	C.Database.Psql.Password = getConfigValue(C.Database.Psql.Password, "DB_PASSWORD", "")
	C.Database.Psql.SSLMode = getConfigValue(C.Database.Psql.SSLMode, "DB_SSLMODE", "disable")

	C.RedisClient.Host = getConfigValue(C.RedisClient.Host, "REDIS_HOST", "127.0.0.1")
	C.RedisClient.Port = getConfigValue(C.RedisClient.Port, "REDIS_PORT", "6379")
	C.RedisClient.Password = getConfigValue(C.RedisClient.Password, "REDIS_PASSWORD", "")
	logger.GetLogger().WithFields(map[string]interface{}{
		"dbHost":    C.Database.Psql.Host,
		"dbName":    C.Database.Psql.Name,
		"redisAddr": C.RedisClient.Addr(),
	}).Info("Database configuration")
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	for _, key := range []string{"APP_PORT", "PORT"} {
		if v := os.Getenv(key); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				C.App.Port = p
				break
			}
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			C.App.TLSEnabled = enabled
		}
	}
	C.App.TLSCertFile = getConfigValue(C.App.TLSCertFile, "TLS_CERT_FILE", "")
	C.App.TLSKeyFile = getConfigValue(C.App.TLSKeyFile, "TLS_KEY_FILE", "")
	if len(C.App.CORSOrigins) == 0 {
		C.App.CORSOrigins = []string{"http://localhost:4200", "http://localhost:4201"}
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; sync endpoints are served without authentication")
	}
}

func initSync(C *Config) {
	s := &C.Sync
	setDefaultDuration(&s.SubscriptionsMaxAge, time.Hour)
	setDefaultDuration(&s.FollowedStreamsMaxAge, 5*time.Minute)
	setDefaultDuration(&s.FollowingsMaxAge, time.Hour)
	setDefaultDuration(&s.ChannelMaxAge, 24*time.Hour)
	setDefaultDuration(&s.VideoMaxAge, 10*time.Minute)
	setDefaultDuration(&s.ScheduleMaxAge, time.Hour)
	setDefaultDuration(&s.EmptyScheduleMaxAge, 24*time.Hour)
	setDefaultDuration(&s.ChannelSectionsTTL, 24*time.Hour)
	if s.TimelineVideoLimit <= 0 {
		s.TimelineVideoLimit = 500
	}
	w := &C.Worker
	if w.Concurrency <= 0 {
		w.Concurrency = 2
	}
	setDefaultString(&w.SubscriptionsEvery, "@every 1h")
	setDefaultString(&w.FollowedStreamsEvery, "@every 5m")
	setDefaultString(&w.FollowingsEvery, "@every 1h")
	setDefaultString(&w.UploadsEvery, "@every 15m")
	setDefaultString(&w.CleanupEvery, "@every 24h")
	C.Notifier.Kind = getConfigValue(C.Notifier.Kind, "SYNC_NOTIFIER", "")
	C.ServiceBus.ConnectionString = getConfigValue(C.ServiceBus.ConnectionString, "SERVICEBUS_CONNECTION_STRING", "")
}

func setDefaultDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

func setDefaultString(s *string, def string) {
	if *s == "" {
		*s = def
	}
}
