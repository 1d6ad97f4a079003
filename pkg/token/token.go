// Package token は署名付きの時限付き認証トークンの発行と検証を提供する。
// 秘密鍵は起動時に一度だけ設定され、以降は不変として扱う。決してログに出力しない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL はトークンの標準有効期間。
const DefaultTTL = 24 * time.Hour

var (
	// ErrMalformed はトークンが構造的に不正であることを表す。
	ErrMalformed = errors.New("token: malformed token")
	// ErrSignatureInvalid は署名検証に失敗したことを表す。
	ErrSignatureInvalid = errors.New("token: invalid signature")
	// ErrExpired はトークンの有効期限が切れていることを表す。
	ErrExpired = errors.New("token: expired token")
)

// Claims はトークンに埋め込むクレーム（ペイロード）を表す。
// 認証済みユーザーの識別情報をリクエスト間で伝播するために使用する。
type Claims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID int64 `json:"user_id"`
	// Username はユーザー名。
	Username string `json:"username"`
}

// Service はトークンの発行と検証を行う。
// 構築時に渡された秘密鍵とTTLのみに依存し、検証は純粋かつステートレス。
type Service struct {
	// secret はHMAC署名用の秘密鍵。
	secret []byte
	// ttl は発行するトークンの有効期間。
	ttl time.Duration
}

// NewService は新しいトークンサービスを生成する。
// ttlが0以下の場合はDefaultTTLを使用する。
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue はユーザー情報から署名付きトークンを生成する。
// issued_atは現在時刻、expires_atは現在時刻+TTLを設定する。
func (s *Service) Issue(userID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "recipebook",
		},
		UserID:   userID,
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークン文字列を検証し、クレームを返す。
// 失敗理由は ErrMalformed / ErrSignatureInvalid / ErrExpired のいずれかに分類される。
// 署名比較はライブラリ内部でHMACの定数時間比較により行われ、不一致は即座に拒否する。
func (s *Service) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformed
		}
	}
	if !parsed.Valid {
		return nil, ErrSignatureInvalid
	}
	return claims, nil
}
