package middleware

import (
	"net"
	"net/http"
)

// ClientKey はリクエスト元を識別するキー（IPアドレス）を返す。
// chiのRealIPミドルウェアの後に配置すると、プロキシ経由でも元のクライアントを返す。
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
