package user

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
)

// UserService define o contrato que o Handler espera da camada de Serviço.
type UserService interface {
	Register(ctx domain.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx domain.Context, email string, password string) (string, error)
}

// Handler agrupa os handlers de identidade.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// RegisterHandler lida com POST /v1/users/register.
// @Summary Registra um novo usuário
// @Tags users
// @Accept json
// @Success 201 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Router /v1/users/register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var registration domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&registration); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	newUser, err := h.Service.Register(r.Context(), registration)
	h.handleServiceResponse(w, r, newUser, err, http.StatusCreated)
}

// loginRequest é o payload de POST /v1/users/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse devolve o token de sessão (JWT).
type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler lida com POST /v1/users/login.
// @Summary Autentica e devolve um token de sessão
// @Tags users
// @Accept json
// @Success 200 {object} loginResponse
// @Failure 401 {object} domain.ErrorResponse
// @Router /v1/users/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	tokenString, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, loginResponse{Token: tokenString}, nil, http.StatusOK)
}
