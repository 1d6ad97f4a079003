package recipe

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateUsername は既に存在するユーザー名での登録を表す。
	ErrDuplicateUsername = errors.New("recipe: username already taken")
	// ErrNotFound はIDによる検索が空だったことを表す。
	ErrNotFound = errors.New("recipe: not found")
	// ErrConstraint は外部キー等の参照整合性違反を表す。
	ErrConstraint = errors.New("recipe: constraint violation")
)

// isConstraintErr はSQLiteドライバのエラーが制約違反かどうかを判定する。
// modernc.org/sqlite は制約違反を "constraint failed" を含むメッセージで返す。
func isConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint")
}
