// recipebookサービスのエントリポイント。
// ユーザー登録・ログインによるトークン発行と、
// 認証済みユーザーごとのレシピ・カテゴリ管理APIを提供する。
package main

import (
	"log"

	"github.com/nao1215/recipebook/internal/config"
	"github.com/nao1215/recipebook/internal/recipe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server, err := recipe.NewServer(cfg)
	if err != nil {
		log.Fatalf("recipebookサーバーの初期化に失敗: %v", err)
	}

	log.Printf("recipebookサービスを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("recipebookサービスの起動に失敗: %v", err)
	}
}
