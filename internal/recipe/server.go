package recipe

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/recipebook/internal/config"
	"github.com/nao1215/recipebook/pkg/middleware"
	"github.com/nao1215/recipebook/pkg/token"
	_ "modernc.org/sqlite"
)

// Server はレシピ共有サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// users はユーザーレコードのストア。
	users *UserStore
	// recipes はレシピとカテゴリ関連のストア。
	recipes *RecipeStore
	// tokens は認証トークンの発行・検証サービス。
	tokens *token.Service
}

// NewServer は新しいレシピサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
// 署名秘密鍵は設定オブジェクト経由でのみ受け取り、以降は不変。
func NewServer(cfg *config.Config) (*Server, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.DBPath)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:  router,
		port:    cfg.Port,
		db:      sqlDB,
		users:   NewUserStore(sqlDB),
		recipes: NewRecipeStore(sqlDB),
		tokens:  token.NewService(cfg.JWTSecret, cfg.TokenTTL),
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証不要のエンドポイント
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Recipebook API"})
	})
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "recipebook"})
	})

	api := s.router.Group("/api")
	{
		// ユーザー登録とログイン
		api.POST("/register", s.handleRegister())
		api.POST("/login", s.handleLogin())

		// 認証必須のエンドポイント
		authed := api.Group("")
		authed.Use(middleware.Auth(s.tokens))
		{
			// レシピ一覧取得
			authed.GET("/recipes", s.handleListRecipes())
			// レシピ詳細取得
			authed.GET("/recipes/:id", s.handleGetRecipe())
			// レシピ作成
			authed.POST("/recipes", s.handleCreateRecipe())
			// レシピ更新
			authed.PUT("/recipes/:id", s.handleUpdateRecipe())
			// レシピ削除
			authed.DELETE("/recipes/:id", s.handleDeleteRecipe())
			// レシピへのカテゴリ追加
			authed.POST("/recipes/:id/categories", s.handleAddCategory())
			// カテゴリ一覧取得
			authed.GET("/categories", s.handleListCategories())
		}
	}
}

// credentialsRequest は登録・ログインリクエストのJSON構造。
type credentialsRequest struct {
	// Username はユーザー名。
	Username string `json:"username" binding:"required"`
	// Password は平文パスワード。ダイジェスト化してのみ保存される。
	Password string `json:"password" binding:"required"`
}

// recipeRequest はレシピ作成・更新リクエストのJSON構造。
type recipeRequest struct {
	// Title はレシピ名。
	Title string `json:"title" binding:"required"`
	// Source はレシピの出典。
	Source string `json:"source" binding:"required"`
	// Ingredients は材料。
	Ingredients string `json:"ingredients" binding:"required"`
	// Instructions は調理手順。
	Instructions string `json:"instructions" binding:"required"`
	// CategoryIDs は作成時に関連付けるカテゴリIDの列。省略可。
	CategoryIDs []int64 `json:"category_ids"`
}

// addCategoryRequest はカテゴリ追加リクエストのJSON構造。
type addCategoryRequest struct {
	// CategoryID は追加するカテゴリのID。
	CategoryID int64 `json:"category_id" binding:"required"`
}

// handleRegister はユーザー登録を処理するハンドラを返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
			return
		}

		user, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
		if errors.Is(err, ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"message": "Username already taken"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not register user"})
			log.Printf("ユーザー登録エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, user)
	}
}

// handleLogin はログインを処理するハンドラを返す。
// 認証成功時にトークンを発行する。ユーザー不在とパスワード不一致は
// 同じレスポンスにまとめ、どちらで失敗したかを外部に漏らさない。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
			return
		}

		user, err := s.users.FindByUsername(c.Request.Context(), req.Username)
		if errors.Is(err, ErrNotFound) || (err == nil && !s.users.VerifyPassword(user, req.Password)) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not log in"})
			log.Printf("ログインエラー: %v", err)
			return
		}

		signed, err := s.tokens.Issue(user.ID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not log in"})
			log.Printf("トークン発行エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Welcome!", "token": signed})
	}
}

// handleListRecipes は認証済みユーザーのレシピ一覧取得を処理するハンドラを返す。
// レシピを持たないユーザーには空のリストを返す。
func (s *Server) handleListRecipes() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		recipes, err := s.recipes.ListByOwner(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch recipes"})
			log.Printf("レシピ一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, recipes)
	}
}

// handleGetRecipe はレシピ詳細取得を処理するハンドラを返す。
// 結合済み行のリストを返し、存在しないIDには空のリストを返す。
func (s *Server) handleGetRecipe() gin.HandlerFunc {
	return func(c *gin.Context) {
		recipeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid recipe id"})
			return
		}

		recipes, err := s.recipes.GetByID(c.Request.Context(), recipeID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch recipe"})
			log.Printf("レシピ取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, recipes)
	}
}

// handleCreateRecipe はレシピ作成を処理するハンドラを返す。
// レシピ本体とカテゴリ関連は単一トランザクションで挿入される。
func (s *Server) handleCreateRecipe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		var req recipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid request body: %v", err)})
			return
		}

		fields := RecipeFields{
			Title:        req.Title,
			Source:       req.Source,
			Ingredients:  req.Ingredients,
			Instructions: req.Instructions,
		}
		if _, err := s.recipes.Create(c.Request.Context(), userID, fields, req.CategoryIDs); err != nil {
			if errors.Is(err, ErrConstraint) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown category id"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not add recipe"})
			log.Printf("レシピ作成エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Recipe added successfully"})
	}
}

// handleUpdateRecipe はレシピ更新を処理するハンドラを返す。
// 4つの内容フィールドを全置換する。カテゴリ関連は変更しない。
// 所有者チェックはストア層のクエリ条件として適用される。
func (s *Server) handleUpdateRecipe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		recipeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid recipe id"})
			return
		}

		var req recipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid request body: %v", err)})
			return
		}

		fields := RecipeFields{
			Title:        req.Title,
			Source:       req.Source,
			Ingredients:  req.Ingredients,
			Instructions: req.Instructions,
		}
		if _, err := s.recipes.Update(c.Request.Context(), recipeID, userID, fields); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Recipe not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update recipe"})
			log.Printf("レシピ更新エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Recipe updated successfully"})
	}
}

// handleDeleteRecipe はレシピ削除を処理するハンドラを返す。
// カテゴリ関連も同一トランザクションで削除する。
// 存在しないIDの削除は冪等に成功として扱う。
func (s *Server) handleDeleteRecipe() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		recipeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid recipe id"})
			return
		}

		deleted, err := s.recipes.Remove(c.Request.Context(), recipeID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete recipe"})
			log.Printf("レシピ削除エラー: %v", err)
			return
		}
		if !deleted {
			log.Printf("存在しないレシピの削除要求: id=%d user_id=%d", recipeID, userID)
		}

		c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
	}
}

// handleAddCategory は既存レシピへのカテゴリ追加を処理するハンドラを返す。
// レシピの存在確認と所有者チェックを行う。
func (s *Server) handleAddCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		recipeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid recipe id"})
			return
		}

		var req addCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid request body: %v", err)})
			return
		}

		// レシピの存在確認と所有者チェック
		rows, err := s.recipes.GetByID(c.Request.Context(), recipeID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch recipe"})
			log.Printf("レシピ取得エラー: %v", err)
			return
		}
		if len(rows) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": "Recipe not found"})
			return
		}
		if rows[0].UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"message": "You do not own this recipe"})
			return
		}

		if err := s.recipes.AddCategory(c.Request.Context(), req.CategoryID, recipeID); err != nil {
			if errors.Is(err, ErrConstraint) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown category id"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not add category"})
			log.Printf("カテゴリ追加エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Category added successfully"})
	}
}

// handleListCategories はカテゴリ一覧取得を処理するハンドラを返す。
func (s *Server) handleListCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := s.recipes.ListCategories(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not fetch categories"})
			log.Printf("カテゴリ一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, categories)
	}
}
