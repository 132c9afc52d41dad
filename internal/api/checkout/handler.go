package checkout

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
	"github.com/Rafargb/nomadsapiens/internal/pkg/middleware"
	"github.com/Rafargb/nomadsapiens/internal/pkg/payments"
	"github.com/Rafargb/nomadsapiens/internal/service/checkoutservice"
)

// CheckoutService define o contrato que o Handler espera da camada de Serviço.
type CheckoutService interface {
	CreateCharge(ctx domain.Context, user domain.User, courseID int64) (payments.Intent, error)
	Reconcile(ctx domain.Context, rawReference string, caller domain.User) (checkoutservice.Receipt, error)
}

// Handler agrupa os handlers do fluxo de compra.
type Handler struct {
	Service CheckoutService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CheckoutService, log logger.Logger) *Handler {
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

// createChargeRequest é o payload de POST /v1/checkout.
// Só o curso: preço e comprador são resolvidos no servidor.
type createChargeRequest struct {
	CourseID int64 `json:"course_id"`
}

// createChargeResponse devolve o client_secret para a UI montar o pagamento hospedado.
type createChargeResponse struct {
	ClientSecret string `json:"client_secret"`
	IntentID     string `json:"intent_id"`
}

// CreateChargeHandler lida com POST /v1/checkout (requer autenticação).
// @Summary Cria a cobrança de um curso no processador de pagamento
// @Tags checkout
// @Accept json
// @Success 201 {object} createChargeResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Router /v1/checkout [post]
func (h *Handler) CreateChargeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Compra exige usuário autenticado."), http.StatusCreated)
		return
	}

	var req createChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	intent, err := h.Service.CreateCharge(r.Context(), claims.User(), req.CourseID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, createChargeResponse{ClientSecret: intent.ClientSecret, IntentID: intent.ID}, nil, http.StatusCreated)
}

// verifyRequest é o payload de POST /v1/checkout/verify.
// A referência é o ÚNICO campo lido: comprador e curso saem da metadata da
// cobrança, nunca do corpo da confirmação.
type verifyRequest struct {
	Reference string `json:"reference"`
}

// VerifyHandler lida com POST /v1/checkout/verify (autenticação opcional).
// Reconcilia a confirmação do processador em uma matrícula durável; é seguro
// chamar quantas vezes a UI precisar com a mesma referência.
// @Summary Verifica um pagamento e grava a matrícula
// @Tags checkout
// @Accept json
// @Success 200 {object} checkoutservice.Receipt
// @Failure 402 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse
// @Router /v1/checkout/verify [post]
func (h *Handler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	// Identidade do chamador, se presente (rota de auth opcional).
	caller := domain.User{}
	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		caller = claims.User()
	}

	receipt, err := h.Service.Reconcile(r.Context(), req.Reference, caller)
	h.handleServiceResponse(w, r, receipt, err, http.StatusOK)
}
