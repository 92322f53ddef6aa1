package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel            = "gemini-2.5-flash"
	DefaultImageModel       = "gemini-2.5-flash-image"
	DefaultHTTPTimeout      = 60 * time.Second
	DefaultDatabasePath     = "data/comics.db" // 保存済みコミックの置き場所なのだ
	DefaultListenAddr       = ":8080"
	DefaultPanelInterval    = 2 * time.Second // パネル画像呼び出しの最小間隔
	DefaultAutosaveInterval = 5 * time.Minute
	DefaultReferenceTTL     = 45 * time.Minute // File API 参照URIのキャッシュ寿命
)

// Config はアプリケーション全体の環境設定（APIキーや保存先）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	DatabasePath     string
	ListenAddr       string

	PanelInterval    time.Duration
	AutosaveInterval time.Duration
	ReferenceTTL     time.Duration
	HTTPTimeout      time.Duration

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		DatabasePath:     envutil.GetEnv("COMIC_DB_PATH", DefaultDatabasePath),
		ListenAddr:       envutil.GetEnv("LISTEN_ADDR", DefaultListenAddr),
		PanelInterval:    envDuration("PANEL_INTERVAL", DefaultPanelInterval),
		AutosaveInterval: envDuration("AUTOSAVE_INTERVAL", DefaultAutosaveInterval),
		ReferenceTTL:     envDuration("REFERENCE_TTL", DefaultReferenceTTL),
		HTTPTimeout:      envDuration("HTTP_TIMEOUT", DefaultHTTPTimeout),
	}
}

// envDuration は time.Duration 形式の環境変数を読むのだ。不正な値は既定値に落とす。
func envDuration(key string, fallback time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ストーリー入力関連
	Prompt        string // --prompt
	StyleID       string // --style
	PageCount     int    // --pages
	Layout        int    // --layout
	CharacterName string // --character
	Language      string // --lang
	Author        string // --author

	// 成果物の出力先
	OutputDir string // --output-dir

	// AI挙動設定
	AIModel    string // --model: テキスト生成用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
}
