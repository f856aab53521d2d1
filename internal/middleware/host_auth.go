// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/subpod/internal/model"
)

const tokenScheme = "Token "

// NewHostAuthMiddleware はホストからの呼び出しを共有トークンで検証するミドルウェアを返す。
// Authorization: Token <token> ヘッダーを要求し、一致しない場合は401を返す。
// tokenが空の場合は検証を行わない。
func NewHostAuthMiddleware(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, tokenScheme) {
				writeUnauthorized(w)
				return
			}

			given := strings.TrimPrefix(header, tokenScheme)
			if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
				slog.Warn("host authentication failed",
					slog.String("path", r.URL.Path),
					slog.String("client", ClientKey(r)),
				)
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Token")
	WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証に失敗しました。",
		Category: "auth",
		Action:   "podに設定されたトークンを指定してください。",
	})
}
