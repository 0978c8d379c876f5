// Package web holds the browser client: it renders both boards, turns mouse
// and microphone input into events on /v1/ws and speaks the replies.
package web

import (
	"embed"
	"net/http"
)

//go:embed index.html styles.css app.js
var Assets embed.FS

// Handler serves the client files uncached.
func Handler() http.Handler {
	files := http.FileServer(http.FS(Assets))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}
