package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// User はユーザーレコードを表す。登録後は不変。
type User struct {
	// ID はユーザーの一意識別子。
	ID int64 `json:"id"`
	// Username はユーザー名。システム全体で一意。
	Username string `json:"username"`
	// passwordDigest はパスワードのbcryptダイジェスト。外部には公開しない。
	passwordDigest string
}

// UserStore はユーザーレコードの永続化と認証情報の検証を行う。
type UserStore struct {
	db *sql.DB
}

// NewUserStore は新しいUserStoreを生成する。
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Register はパスワードをダイジェスト化して新しいユーザーを登録する。
// ユーザー名が既に存在する場合はErrDuplicateUsernameを返す。
// 返却するUserにダイジェストは含まれない。
func (s *UserStore) Register(ctx context.Context, username, password string) (User, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("パスワードのダイジェスト化に失敗: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_digest) VALUES (?, ?)",
		username, string(digest),
	)
	if err != nil {
		if isConstraintErr(err) {
			return User{}, ErrDuplicateUsername
		}
		return User{}, fmt.Errorf("ユーザーの登録に失敗: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("ユーザーIDの取得に失敗: %w", err)
	}

	return User{ID: id, Username: username}, nil
}

// FindByUsername はユーザー名でユーザーを検索する。
// 存在しない場合はErrNotFoundを返す。
func (s *UserStore) FindByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_digest FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.passwordDigest)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}
	return u, nil
}

// VerifyPassword はユーザーのダイジェストと平文パスワードを照合する。
// 平文同士の比較は決して行わない。
func (s *UserStore) VerifyPassword(u User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.passwordDigest), []byte(password)) == nil
}
