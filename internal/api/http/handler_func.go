package http

import "net/http"

// HandlerFunc はエラーを返す HTTP ハンドラの型です。
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP は返されたエラーを AppError のエンベロープで書き出します。
func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		writeError(w, err)
	}
}
