// Package config はアプリケーション設定を環境変数から読み込む。
//
// 設定は起動時に一度だけ読み込まれ、以降は不変のオブジェクトとして
// 各コンポーネントのコンストラクタに明示的に渡される。リクエスト処理中に
// 環境変数を直接参照してはならない。
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config はrecipebookサービスの全設定を保持する。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" env-default:"8080"`
	// DBPath はSQLiteデータベースファイルのパス。
	DBPath string `env:"DB_PATH" env-default:"recipebook.db"`
	// JWTSecret はトークン署名用の秘密鍵。ログに出力してはならない。
	JWTSecret string `env:"JWT_SECRET" env-default:"dev-secret-key"`
	// TokenTTL は発行するトークンの有効期間。
	TokenTTL time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string `env:"FRONTEND_URL" env-default:"http://localhost:3000"`
}

// Load は環境変数から設定を読み込む。
// 未設定の項目にはデフォルト値を適用する。
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
