// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 認証トークンの検証と認証済みユーザー情報のコンテキストへの注入、
// パニックリカバリ、CORS設定、リクエストID付与を含む。
package middleware
