package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	TokenTTLHours      int
	DatabaseURI        string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Notice shown on the notifications feed
	NoticeTitle string
	NoticeHTML  string
	// Redis for caching, token revocation and article read timers
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Out-of-band administrator. The password is a bcrypt hash.
	AdminUsernames    []string
	AdminPasswordHash string
	// Reward engine settings, validated at load time.
	Rewards RewardConfig
}

// RewardConfig groups every tunable of the reward engines. It is resolved once
// at boot and passed explicitly into each engine.
type RewardConfig struct {
	Timezone             string
	TimeOracleURL        string
	TimeOracleField      string
	TimeOracleTimeoutSec int

	CheckinBaseReward  int64
	CheckinBonusReward int64
	CheckinBonusEvery  int

	GameMaxPlaysPerDay   int
	GameBoardWidth       int
	GameCandyTypes       int
	GameTimeLimitSec     int
	GameMovesLimit       int
	GameTargetScore      int
	GameRewardPerWin     int64
	GameMaxPointsPerMove int

	SocialReward          int64
	SocialProbeTimeoutSec int
	SocialUserAgent       string

	ArticleDefaultReward  int64
	ArticleMinReadSeconds int
}

// Location resolves the reference timezone. Validate guarantees it loads.
func (r RewardConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate rejects values the engines cannot work with.
func (r RewardConfig) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("rewards.Timezone %q: %w", r.Timezone, err))
	}
	if r.CheckinBaseReward <= 0 || r.CheckinBonusReward <= 0 {
		errs = append(errs, errors.New("rewards: check-in rewards must be positive"))
	}
	if r.CheckinBonusEvery <= 0 {
		errs = append(errs, errors.New("rewards.CheckinBonusEvery must be positive"))
	}
	if r.GameMaxPlaysPerDay <= 0 {
		errs = append(errs, errors.New("rewards.GameMaxPlaysPerDay must be positive"))
	}
	if r.GameBoardWidth < 3 {
		errs = append(errs, errors.New("rewards.GameBoardWidth must be at least 3"))
	}
	// with fewer than three types a cell can be boxed in by both neighbours
	if r.GameCandyTypes < 3 {
		errs = append(errs, errors.New("rewards.GameCandyTypes must be at least 3"))
	}
	if r.GameTargetScore <= 0 || r.GameMovesLimit <= 0 || r.GameTimeLimitSec <= 0 {
		errs = append(errs, errors.New("rewards: game limits must be positive"))
	}
	if r.GameRewardPerWin <= 0 || r.SocialReward <= 0 || r.ArticleDefaultReward <= 0 {
		errs = append(errs, errors.New("rewards: task rewards must be positive"))
	}
	if r.GameMaxPointsPerMove < 0 || r.ArticleMinReadSeconds < 0 {
		errs = append(errs, errors.New("rewards: negative limits are not allowed"))
	}
	return errors.Join(errs...)
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}
	c, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// LoadFrom resolves configuration with precedence JSON file -> defaults -> environment.
// A missing file is not an error.
func LoadFrom(path string) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&c)
	applyEnvOverrides(&c)

	if c.JWTSecret == "" {
		return c, errors.New("JWT_SECRET must be set in environment variables")
	}
	if err := c.Rewards.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the grouped JSON file into out if present.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.TokenTTLHours = getInt(app, "TokenTTLHours")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.GinMode = getString(lg, "GinMode")
		out.GinPath = getString(lg, "GinPath")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if adm, ok := raw["admin"].(map[string]any); ok {
		out.AdminUsernames = getStringSlice(adm, "Usernames")
		out.AdminPasswordHash = getString(adm, "PasswordHash")
	}

	if nt, ok := raw["notice"].(map[string]any); ok {
		out.NoticeTitle = getString(nt, "Title")
		out.NoticeHTML = getString(nt, "HTML")
	}

	if rw, ok := raw["rewards"].(map[string]any); ok {
		r := &out.Rewards
		r.Timezone = getString(rw, "Timezone")
		r.TimeOracleURL = getString(rw, "TimeOracleURL")
		r.TimeOracleField = getString(rw, "TimeOracleField")
		r.TimeOracleTimeoutSec = getInt(rw, "TimeOracleTimeoutSec")
		r.CheckinBaseReward = int64(getInt(rw, "CheckinBaseReward"))
		r.CheckinBonusReward = int64(getInt(rw, "CheckinBonusReward"))
		r.CheckinBonusEvery = getInt(rw, "CheckinBonusEvery")
		r.GameMaxPlaysPerDay = getInt(rw, "GameMaxPlaysPerDay")
		r.GameBoardWidth = getInt(rw, "GameBoardWidth")
		r.GameCandyTypes = getInt(rw, "GameCandyTypes")
		r.GameTimeLimitSec = getInt(rw, "GameTimeLimitSec")
		r.GameMovesLimit = getInt(rw, "GameMovesLimit")
		r.GameTargetScore = getInt(rw, "GameTargetScore")
		r.GameRewardPerWin = int64(getInt(rw, "GameRewardPerWin"))
		r.GameMaxPointsPerMove = getInt(rw, "GameMaxPointsPerMove")
		r.SocialReward = int64(getInt(rw, "SocialReward"))
		r.SocialProbeTimeoutSec = getInt(rw, "SocialProbeTimeoutSec")
		r.SocialUserAgent = getString(rw, "SocialUserAgent")
		r.ArticleDefaultReward = int64(getInt(rw, "ArticleDefaultReward"))
		r.ArticleMinReadSeconds = getInt(rw, "ArticleMinReadSeconds")
	}
	return nil
}

func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "3000"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 72
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "cashx"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.NoticeTitle == "" {
		c.NoticeTitle = "Welcome to CASHX! Start earning today."
	}
	applyRewardDefaults(&c.Rewards)
}

func applyRewardDefaults(r *RewardConfig) {
	if r.Timezone == "" {
		r.Timezone = "Africa/Lagos"
	}
	if r.TimeOracleURL == "" {
		r.TimeOracleURL = "https://worldtimeapi.org/api/timezone/" + r.Timezone
	}
	if r.TimeOracleField == "" {
		r.TimeOracleField = "datetime"
	}
	if r.TimeOracleTimeoutSec == 0 {
		r.TimeOracleTimeoutSec = 3
	}
	if r.CheckinBaseReward == 0 {
		r.CheckinBaseReward = 50
	}
	if r.CheckinBonusReward == 0 {
		r.CheckinBonusReward = 150
	}
	if r.CheckinBonusEvery == 0 {
		r.CheckinBonusEvery = 7
	}
	if r.GameMaxPlaysPerDay == 0 {
		r.GameMaxPlaysPerDay = 2
	}
	if r.GameBoardWidth == 0 {
		r.GameBoardWidth = 8
	}
	if r.GameCandyTypes == 0 {
		r.GameCandyTypes = 5
	}
	if r.GameTimeLimitSec == 0 {
		r.GameTimeLimitSec = 60
	}
	if r.GameMovesLimit == 0 {
		r.GameMovesLimit = 20
	}
	if r.GameTargetScore == 0 {
		r.GameTargetScore = 600
	}
	if r.GameRewardPerWin == 0 {
		r.GameRewardPerWin = 100
	}
	if r.SocialReward == 0 {
		r.SocialReward = 200
	}
	if r.SocialProbeTimeoutSec == 0 {
		r.SocialProbeTimeoutSec = 10
	}
	if r.SocialUserAgent == "" {
		r.SocialUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}
	if r.ArticleDefaultReward == 0 {
		r.ArticleDefaultReward = 100
	}
	if r.ArticleMinReadSeconds == 0 {
		r.ArticleMinReadSeconds = 60
	}
}

func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("ADMIN_USERNAMES", ""); v != "" {
		c.AdminUsernames = splitList(v)
	}
	if v := getEnv("ADMIN_PASSWORD_HASH", ""); v != "" {
		c.AdminPasswordHash = v
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	envInt := func(key string, dst *int) {
		if v := getEnv(key, ""); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envInt64 := func(key string, dst *int64) {
		if v := getEnv(key, ""); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = n
			}
		}
	}
	envInt("REDIS_PORT", &c.RedisPort)
	envInt("REDIS_DB", &c.RedisDB)
	envInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	envInt("TOKEN_TTL_HOURS", &c.TokenTTLHours)

	r := &c.Rewards
	if v := getEnv("REWARD_TIMEZONE", ""); v != "" {
		r.Timezone = v
		r.TimeOracleURL = "https://worldtimeapi.org/api/timezone/" + v
	}
	if v := getEnv("REWARD_TIME_ORACLE_URL", ""); v != "" {
		r.TimeOracleURL = v
	}
	envInt64("REWARD_CHECKIN_BASE", &r.CheckinBaseReward)
	envInt64("REWARD_CHECKIN_BONUS", &r.CheckinBonusReward)
	envInt("REWARD_CHECKIN_BONUS_EVERY", &r.CheckinBonusEvery)
	envInt("REWARD_GAME_MAX_PLAYS", &r.GameMaxPlaysPerDay)
	envInt("REWARD_GAME_BOARD_WIDTH", &r.GameBoardWidth)
	envInt("REWARD_GAME_CANDY_TYPES", &r.GameCandyTypes)
	envInt("REWARD_GAME_TARGET_SCORE", &r.GameTargetScore)
	envInt("REWARD_GAME_MOVES_LIMIT", &r.GameMovesLimit)
	envInt("REWARD_GAME_TIME_LIMIT", &r.GameTimeLimitSec)
	envInt64("REWARD_GAME_PER_WIN", &r.GameRewardPerWin)
	envInt("REWARD_GAME_MAX_POINTS_PER_MOVE", &r.GameMaxPointsPerMove)
	envInt64("REWARD_SOCIAL", &r.SocialReward)
	envInt64("REWARD_ARTICLE_DEFAULT", &r.ArticleDefaultReward)
	envInt("REWARD_ARTICLE_MIN_READ_SECONDS", &r.ArticleMinReadSeconds)
	envInt("REWARD_TIME_ORACLE_TIMEOUT_SEC", &r.TimeOracleTimeoutSec)
	envInt("REWARD_SOCIAL_PROBE_TIMEOUT_SEC", &r.SocialProbeTimeoutSec)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DefaultRewardConfig returns the reward settings used when nothing is configured.
func DefaultRewardConfig() RewardConfig {
	var r RewardConfig
	applyRewardDefaults(&r)
	return r
}
