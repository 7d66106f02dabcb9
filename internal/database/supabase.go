package database

import (
	"fmt"
	"net/url"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// SupabaseConfig Supabase の接続設定
type SupabaseConfig struct {
	URL     string
	AnonKey string
	Schema  string // 空なら public
}

// Validate 必須項目と URL 形式の確認
func (c SupabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("SUPABASE_URL環境変数が設定されていません")
	}
	if c.AnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY環境変数が設定されていません")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SUPABASE_URL が不正です: %q", c.URL)
	}
	return nil
}

// SupabaseClient Supabaseクライアントのラッパー
type SupabaseClient struct {
	Client *supabase.Client
	host   string
	logger *zap.Logger
}

// NewSupabaseClient 設定から Supabase クライアントを作成
func NewSupabaseClient(cfg SupabaseConfig, logger *zap.Logger) (*SupabaseClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := supabase.NewClient(cfg.URL, cfg.AnonKey, &supabase.ClientOptions{Schema: cfg.Schema})
	if err != nil {
		return nil, fmt.Errorf("Supabaseクライアントの初期化に失敗: %w", err)
	}

	u, _ := url.Parse(cfg.URL)
	logger.Info("Supabaseクライアント初期化", zap.String("host", u.Host), zap.String("schema", cfg.Schema))
	return &SupabaseClient{
		Client: client,
		host:   u.Host,
		logger: logger,
	}, nil
}

// GetClient Supabaseクライアントを取得
func (sc *SupabaseClient) GetClient() *supabase.Client {
	return sc.Client
}

// HealthCheck テーブルに1行だけ問い合わせて疎通を確認
func (sc *SupabaseClient) HealthCheck(table string) error {
	if sc.Client == nil {
		return fmt.Errorf("Supabaseクライアントが初期化されていません")
	}
	if _, _, err := sc.Client.From(table).Select("*", "", false).Limit(1, "").Execute(); err != nil {
		sc.logger.Warn("Supabaseヘルスチェック失敗", zap.String("host", sc.host), zap.String("table", table), zap.Error(err))
		return fmt.Errorf("%s への問い合わせに失敗: %w", table, err)
	}
	return nil
}
