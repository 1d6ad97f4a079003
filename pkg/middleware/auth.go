package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/recipebook/pkg/token"
)

// msgPleaseLogIn は認証失敗時にクライアントへ返すメッセージ。
// 既存クライアントとの互換性契約であり、文言を変更してはならない。
// 失敗理由（不正・署名不一致・期限切れ）はログにのみ記録し、
// どの段階で認証が失敗したかを外部に漏らさない。
const msgPleaseLogIn = "Please log in."

// contextKeyUserID / contextKeyUsername は認証済みユーザー情報を
// Ginコンテキストに保持するためのキー。
const (
	contextKeyUserID   = "user_id"
	contextKeyUsername = "username"
)

// Auth は認証トークンを検証するGinミドルウェアを返す。
//
// Authorizationヘッダーの値をそのままトークンとして扱う（既存契約）。
// クライアントの利便のため "Bearer " 接頭辞が付いていた場合は取り除く。
// 検証に成功した場合、コンテキストにユーザーIDとユーザー名を設定する。
// 失敗は即時拒否でリトライしない。
func Auth(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": msgPleaseLogIn,
			})
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		claims, err := tokens.Verify(raw)
		if err != nil {
			log.Printf("トークン検証に失敗: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": msgPleaseLogIn,
			})
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyUsername, claims.Username)
		c.Next()
	}
}

// UserID はGinコンテキストから認証済みユーザーのIDを取得する。
// Authミドルウェアが事前に適用されていない場合は0を返す。
func UserID(c *gin.Context) int64 {
	v, _ := c.Get(contextKeyUserID)
	if id, ok := v.(int64); ok {
		return id
	}
	return 0
}

// Username はGinコンテキストから認証済みユーザーのユーザー名を取得する。
// Authミドルウェアが事前に適用されていない場合は空文字を返す。
func Username(c *gin.Context) string {
	v, _ := c.Get(contextKeyUsername)
	if name, ok := v.(string); ok {
		return name
	}
	return ""
}
