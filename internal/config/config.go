package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"RegionAccess-App/internal/database"
	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/service"
)

// アクセスリストのバックエンド
const (
	AccessListStatic    = "static"
	AccessListPostgres  = "postgres"
	AccessListSupabase  = "supabase"
	AccessListFirestore = "firestore"
)

// インフラ地点のバックエンド
const (
	InfraMemory   = "memory"
	InfraPostgres = "postgres"
)

// Config アプリケーション設定
type Config struct {
	Port    string
	GinMode string

	LogLevel  string
	LogFormat string

	// BoundaryBaseURL が設定されていれば HTTP、なければ BoundaryDir から読み込む
	BoundaryBaseURL string
	BoundaryDir     string

	Authorizer service.AuthorizerConfig

	AccessListBackend  string
	AccessListFile     string
	AccessListCacheTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	InfraBackend string

	FirestoreProjectID string

	Supabase database.SupabaseConfig
}

// Load .env を読み込んだ上で環境変数から設定を作成
func Load() (*Config, error) {
	// .env が無ければ環境変数のみを使用
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv getenv から設定を作成
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:               get("PORT", "8080"),
		GinMode:            get("GIN_MODE", "release"),
		LogLevel:           get("LOG_LEVEL", "info"),
		LogFormat:          get("LOG_FORMAT", "json"),
		BoundaryBaseURL:    get("BOUNDARY_BASE_URL", ""),
		BoundaryDir:        get("BOUNDARY_DIR", "./data"),
		Authorizer:         service.DefaultAuthorizerConfig(),
		AccessListBackend:  strings.ToLower(get("ACCESS_LIST_BACKEND", AccessListStatic)),
		AccessListFile:     get("ACCESS_LIST_FILE", "./data/access-list.json"),
		RedisAddr:          get("REDIS_ADDR", ""),
		RedisPassword:      get("REDIS_PASSWORD", ""),
		InfraBackend:       strings.ToLower(get("INFRA_BACKEND", InfraMemory)),
		FirestoreProjectID: get("FIRESTORE_PROJECT_ID", ""),
		Supabase: database.SupabaseConfig{
			URL:     get("SUPABASE_URL", ""),
			AnonKey: get("SUPABASE_ANON_KEY", ""),
			Schema:  get("SUPABASE_SCHEMA", ""),
		},
	}

	datasets := map[model.RegionLevel]string{
		model.RegionLevelState:       "STATE_DATASET",
		model.RegionLevelDistrict:    "DISTRICT_DATASET",
		model.RegionLevelSubdistrict: "SUBDISTRICT_DATASET",
	}
	cfg.Authorizer.National.Name = get("NATIONAL_BOUNDARY_DATASET", cfg.Authorizer.National.Name)
	for level, key := range datasets {
		spec := cfg.Authorizer.Regional[level]
		spec.Name = get(key, spec.Name)
		cfg.Authorizer.Regional[level] = spec
	}

	var err error
	if cfg.Authorizer.LoadTimeout, err = parseDuration(get("BOUNDARY_LOAD_TIMEOUT", ""), cfg.Authorizer.LoadTimeout); err != nil {
		return nil, fmt.Errorf("BOUNDARY_LOAD_TIMEOUT: %w", err)
	}
	if cfg.Authorizer.Policy, err = model.ParseMissingAccessListPolicy(get("ON_MISSING_ACCESS_LIST", "")); err != nil {
		return nil, fmt.Errorf("ON_MISSING_ACCESS_LIST: %w", err)
	}
	if cfg.AccessListCacheTTL, err = parseDuration(get("ACCESS_LIST_CACHE_TTL", ""), 5*time.Minute); err != nil {
		return nil, fmt.Errorf("ACCESS_LIST_CACHE_TTL: %w", err)
	}
	if v := get("REDIS_DB", ""); v != "" {
		if cfg.RedisDB, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
	}

	switch cfg.AccessListBackend {
	case AccessListSupabase:
		if err := cfg.Supabase.Validate(); err != nil {
			return nil, err
		}
	case AccessListStatic, AccessListPostgres, AccessListFirestore:
	default:
		return nil, fmt.Errorf("不明な ACCESS_LIST_BACKEND: %s", cfg.AccessListBackend)
	}
	switch cfg.InfraBackend {
	case InfraMemory, InfraPostgres:
	default:
		return nil, fmt.Errorf("不明な INFRA_BACKEND: %s", cfg.InfraBackend)
	}

	return cfg, nil
}

func parseDuration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("正の値を指定してください: %s", v)
	}
	return d, nil
}

// NeedsPostgres いずれかのバックエンドが PostgreSQL を使うか
func (c *Config) NeedsPostgres() bool {
	return c.AccessListBackend == AccessListPostgres || c.InfraBackend == InfraPostgres
}

// WarmupLevels 起動時に事前読み込みする地域データセットの階層
func (c *Config) WarmupLevels() []model.RegionLevel {
	levels := make([]model.RegionLevel, 0, len(c.Authorizer.Regional))
	for _, level := range model.GrantableLevels {
		if _, ok := c.Authorizer.Regional[level]; ok {
			levels = append(levels, level)
		}
	}
	return levels
}
