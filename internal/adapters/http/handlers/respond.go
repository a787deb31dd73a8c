// Package handlers agrupa os handlers HTTP da API de relatórios.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError traduz o Kind do erro para o status HTTP.
func writeError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid request", Error: err.Error()})
	case domain.KindRateLimited:
		writeJSON(w, http.StatusTooManyRequests, errorBody{Message: "Rate limit exceeded"})
	case domain.KindConfigMissing:
		message := "Server configuration error"
		var derr *domain.Error
		if errors.As(err, &derr) && derr.Message != "" {
			message = derr.Message
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: message, Error: string(domain.KindConfigMissing)})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Failed to generate report", Error: err.Error()})
	}
}

// MethodNotAllowed responde 405 em JSON para rotas existentes com método errado.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "Method not allowed"})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Message: "Not found"})
}

// validationError converte os erros do validator numa mensagem única.
func validationError(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.WrapError(domain.KindValidation, op, err)
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s", fe.Field(), fe.Tag()))
	}
	return domain.NewError(domain.KindValidation, op, strings.Join(messages, "; "))
}
