package handlers

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"
)

// FormHandler serve a página com o formulário de pedido de relatório.
func FormHandler(renderer Renderer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := renderer.RenderForm(&buf); err != nil {
			log.Error("render form failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
