// Package recipe はレシピ共有バックエンドの内部実装を提供する。
//
// ユーザー登録・ログインによるトークン発行と、認証済みユーザーごとの
// レシピコレクション（カテゴリとの多対多関連を含む）のCRUDを担当する。
// レシピは所有者のみが参照・更新・削除でき、所有者チェックは
// ストア層のクエリ条件として常に適用される。
package recipe
