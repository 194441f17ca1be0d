package middleware

import "net/http"

// NewCORSMiddleware はオリジン許可リストに基づくCORSミドルウェアを返す。
//
// Originヘッダーが許可リストに完全一致した場合のみ、そのオリジンを
// エコーバックしてcredentials付きリクエストを許可する。不一致の場合は
// "*" とcredentials不許可に落とし、Cookieが第三者オリジンへ流れない
// ようにする。どちらの場合もVary: Originを付与してキャッシュ混線を防ぐ。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, corsOK := allowed[origin]

			if corsOK {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Credentials", "false")
			}
			w.Header().Set("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
