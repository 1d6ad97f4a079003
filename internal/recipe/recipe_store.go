package recipe

import (
	"context"
	"database/sql"
	"fmt"
)

// Recipe はレシピレコードを表す。
// Categoriesは関連テーブルから導出される連結済みカテゴリ名で、
// レシピ自体のカラムではない。
type Recipe struct {
	// ID はレシピの一意識別子。
	ID int64 `json:"id"`
	// UserID はレシピを所有するユーザーのID。
	UserID int64 `json:"user_id"`
	// Title はレシピ名。
	Title string `json:"title"`
	// Source はレシピの出典。
	Source string `json:"source"`
	// Ingredients は材料。
	Ingredients string `json:"ingredients"`
	// Instructions は調理手順。
	Instructions string `json:"instructions"`
	// Categories は関連カテゴリ名を ", " で連結した文字列。
	// 連結順は関連行の挿入順。カテゴリが無い場合は空文字。
	Categories string `json:"categories"`
}

// RecipeFields はレシピ更新時に全置換される4つの内容フィールド。
type RecipeFields struct {
	Title        string
	Source       string
	Ingredients  string
	Instructions string
}

// Category はレシピ分類用のカテゴリを表す。複数のレシピで共有される。
type Category struct {
	// ID はカテゴリの一意識別子。
	ID int64 `json:"id"`
	// Name はカテゴリ名。
	Name string `json:"name"`
}

// RecipeStore はレシピとカテゴリ関連の永続化を行う。
// 複数行にまたがる書き込み（作成・削除）は単一トランザクションで実行し、
// 部分的な書き込みが並行読み取りから見えないことを保証する。
type RecipeStore struct {
	db *sql.DB
}

// NewRecipeStore は新しいRecipeStoreを生成する。
func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// selectRecipes はレシピとカテゴリ連結の共通SELECT句。
//
// LEFT JOINを使用するため、カテゴリを持たないレシピも
// Categoriesが空文字の行として返る（内部結合だと行ごと消える）。
// GROUP_CONCATの連結順は関連行の挿入順（rowid順）で固定する。
const selectRecipes = `
SELECT r.id, r.user_id, r.title, r.source, r.ingredients, r.instructions,
       GROUP_CONCAT(c.name, ', ' ORDER BY rc.rowid) AS categories
FROM recipes AS r
LEFT JOIN recipe_categories AS rc ON rc.recipe_id = r.id
LEFT JOIN categories AS c ON rc.category_id = c.id
`

// ListByOwner は指定ユーザーが所有するレシピの一覧を返す。
// レシピを1件も持たないユーザーには空のスライスを返す（エラーではない）。
func (s *RecipeStore) ListByOwner(ctx context.Context, userID int64) ([]Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRecipes+"WHERE r.user_id = ? GROUP BY r.id ORDER BY r.id", userID)
	if err != nil {
		return nil, fmt.Errorf("レシピ一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecipes(rows)
}

// GetByID は指定IDのレシピを結合済み行のスライスとして返す。
// 先頭要素が代表行。存在しないIDの場合は空のスライスを返す。
func (s *RecipeStore) GetByID(ctx context.Context, recipeID int64) ([]Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRecipes+"WHERE r.id = ? GROUP BY r.id", recipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecipes(rows)
}

// scanRecipes は結合済みクエリ結果をRecipeのスライスに変換する。
func scanRecipes(rows *sql.Rows) ([]Recipe, error) {
	recipes := make([]Recipe, 0)
	for rows.Next() {
		var r Recipe
		var categories sql.NullString
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Source, &r.Ingredients, &r.Instructions, &categories); err != nil {
			return nil, fmt.Errorf("レシピ行の読み取りに失敗: %w", err)
		}
		r.Categories = categories.String
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レシピ行の走査に失敗: %w", err)
	}
	return recipes, nil
}

// Create はレシピと指定カテゴリとの関連を単一トランザクションで作成する。
// いずれかの関連行の挿入に失敗した場合は全体をロールバックし、
// 部分的に挿入されたレシピが残らないことを保証する。
// 未知のカテゴリIDはErrConstraintを返す。
func (s *RecipeStore) Create(ctx context.Context, userID int64, fields RecipeFields, categoryIDs []int64) (Recipe, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Recipe{}, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		"INSERT INTO recipes (user_id, title, source, ingredients, instructions) VALUES (?, ?, ?, ?, ?)",
		userID, fields.Title, fields.Source, fields.Ingredients, fields.Instructions,
	)
	if err != nil {
		return Recipe{}, fmt.Errorf("レシピの挿入に失敗: %w", err)
	}

	recipeID, err := result.LastInsertId()
	if err != nil {
		return Recipe{}, fmt.Errorf("レシピIDの取得に失敗: %w", err)
	}

	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_categories (recipe_id, category_id) VALUES (?, ?)",
			recipeID, categoryID,
		); err != nil {
			if isConstraintErr(err) {
				return Recipe{}, fmt.Errorf("カテゴリID %d の関連付けに失敗: %w", categoryID, ErrConstraint)
			}
			return Recipe{}, fmt.Errorf("カテゴリ関連の挿入に失敗: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Recipe{}, fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}

	created, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return Recipe{}, err
	}
	if len(created) == 0 {
		return Recipe{}, ErrNotFound
	}
	return created[0], nil
}

// AddCategory は既存レシピにカテゴリ関連を1行追加する。
// レシピまたはカテゴリのIDが未知の場合はErrConstraintを返す。
func (s *RecipeStore) AddCategory(ctx context.Context, categoryID, recipeID int64) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO recipe_categories (recipe_id, category_id) VALUES (?, ?)",
		recipeID, categoryID,
	); err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("カテゴリ関連の追加に失敗: %w", ErrConstraint)
		}
		return fmt.Errorf("カテゴリ関連の追加に失敗: %w", err)
	}
	return nil
}

// Update はレシピの4つの内容フィールドを全置換する。カテゴリ関連は変更しない。
// 所有者チェックはクエリ条件として適用され、他ユーザーのレシピや
// 存在しないIDに対してはErrNotFoundを返す。
func (s *RecipeStore) Update(ctx context.Context, recipeID, userID int64, fields RecipeFields) (Recipe, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE recipes SET title = ?, source = ?, ingredients = ?, instructions = ? WHERE id = ? AND user_id = ?",
		fields.Title, fields.Source, fields.Ingredients, fields.Instructions, recipeID, userID,
	)
	if err != nil {
		return Recipe{}, fmt.Errorf("レシピの更新に失敗: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Recipe{}, fmt.Errorf("更新行数の取得に失敗: %w", err)
	}
	if affected == 0 {
		return Recipe{}, ErrNotFound
	}

	updated, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return Recipe{}, err
	}
	if len(updated) == 0 {
		return Recipe{}, ErrNotFound
	}
	return updated[0], nil
}

// Remove はレシピとそのカテゴリ関連を単一トランザクションで削除する。
// 孤児となる関連行を残さない。戻り値はレシピ行が実際に削除されたかどうかで、
// 存在しないIDに対する削除は正常終了として扱う（冪等）。
// 所有者チェックはクエリ条件として適用される。
func (s *RecipeStore) Remove(ctx context.Context, recipeID, userID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// 所有者のレシピに紐づく関連行のみ削除する
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM recipe_categories WHERE recipe_id IN (SELECT id FROM recipes WHERE id = ? AND user_id = ?)",
		recipeID, userID,
	); err != nil {
		return false, fmt.Errorf("カテゴリ関連の削除に失敗: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM recipes WHERE id = ? AND user_id = ?", recipeID, userID)
	if err != nil {
		return false, fmt.Errorf("レシピの削除に失敗: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除行数の取得に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}

	return affected > 0, nil
}

// ListCategories は全カテゴリの一覧をID順で返す。
func (s *RecipeStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("カテゴリ行の読み取りに失敗: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ行の走査に失敗: %w", err)
	}
	return categories, nil
}
