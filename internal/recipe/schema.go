package recipe

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS users (
    -- ユーザーの一意識別子
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    -- ユーザー名。書き込み時に一意性を強制する
    username TEXT NOT NULL UNIQUE,
    -- パスワードのダイジェスト。平文は保存しない
    password_digest TEXT NOT NULL,
    -- 作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS recipes (
    -- レシピの一意識別子
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    -- レシピを所有するユーザーのID
    user_id INTEGER NOT NULL,
    -- レシピ名
    title TEXT NOT NULL,
    -- レシピの出典（例: 親戚、料理本）
    source TEXT NOT NULL,
    -- 材料
    ingredients TEXT NOT NULL,
    -- 調理手順
    instructions TEXT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS categories (
    -- カテゴリの一意識別子
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    -- カテゴリ名。複数のレシピで共有される
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS recipe_categories (
    -- レシピID
    recipe_id INTEGER NOT NULL,
    -- カテゴリID
    category_id INTEGER NOT NULL,
    PRIMARY KEY (recipe_id, category_id),
    FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE,
    FOREIGN KEY (category_id) REFERENCES categories(id)
);

-- 所有者でのレシピ検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_recipes_user_id
    ON recipes(user_id);

-- カテゴリIDでの逆引き検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_recipe_categories_category_id
    ON recipe_categories(category_id);
`

// seedCategories は初期データとして投入するカテゴリ名。
// 新規デプロイ直後からレシピを分類できるようにする。
var seedCategories = []string{
	"Breakfast",
	"Lunch",
	"Dinner",
	"Dessert",
	"Snack",
	"Egg",
}

// initSchema はSQLiteデータベースにスキーマを適用し、初期カテゴリを投入する。
// 何度実行しても安全（冪等）。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}

	for _, name := range seedCategories {
		if _, err := db.Exec("INSERT OR IGNORE INTO categories (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("初期カテゴリの投入に失敗: %w", err)
		}
	}
	return nil
}
