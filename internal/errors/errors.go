package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do backend.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION", "NOT_FOUND", "INTERNAL")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// UnauthorizedError representa ausência ou invalidade de credenciais (401),
// ou um chamador autenticado que não corresponde ao dono do recurso.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação/autorização.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// DuplicateError representa a violação de uma restrição de unicidade no banco
// (PostgreSQL 23505). Na reconciliação de compra este erro NÃO é uma falha do
// ponto de vista do chamador: a matrícula já existe e o resultado é sucesso
// idempotente. Em cadastros (e.g., email repetido) ele vira um 409 normal.
type DuplicateError struct {
	Msg string
	Err error
}

func (e *DuplicateError) Error() string    { return fmt.Sprintf("Registro duplicado: %s", e.Msg) }
func (e *DuplicateError) Category() string { return "DUPLICATE_KEY" }
func (e *DuplicateError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *DuplicateError) Unwrap() error    { return e.Err }

// NewDuplicateError cria um erro de chave duplicada.
func NewDuplicateError(msg string, err error) AppError {
	return &DuplicateError{Msg: msg, Err: err}
}

// IsDuplicate informa se algum erro da cadeia é uma violação de unicidade.
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}

// --- Tipos de Erro do Fluxo de Pagamento ---

// PaymentNotSuccessfulError indica que o processador de pagamento respondeu,
// mas o status da cobrança não é um sucesso final (e.g., requires_payment_method,
// processing, canceled). Terminal: repetir com a mesma referência não ajuda.
type PaymentNotSuccessfulError struct {
	Status string
}

func (e *PaymentNotSuccessfulError) Error() string {
	return fmt.Sprintf("Pagamento não confirmado (status do processador: %s)", e.Status)
}
func (e *PaymentNotSuccessfulError) Category() string { return "PAYMENT_NOT_SUCCESSFUL" }
func (e *PaymentNotSuccessfulError) HTTPStatus() int  { return http.StatusPaymentRequired } // 402
func (e *PaymentNotSuccessfulError) Unwrap() error    { return nil }

// NewPaymentNotSuccessfulError cria um erro terminal de pagamento não confirmado.
func NewPaymentNotSuccessfulError(status string) AppError {
	return &PaymentNotSuccessfulError{Status: status}
}

// VerificationUnavailableError indica falha transitória ao consultar o
// processador de pagamento (rede, timeout, 5xx). Retryável com a mesma
// referência — distinto de PaymentNotSuccessful para que a UI saiba
// diferenciar "tente de novo" de "você não foi cobrado".
type VerificationUnavailableError struct {
	Err error
}

func (e *VerificationUnavailableError) Error() string {
	return fmt.Sprintf("Verificação de pagamento indisponível: %v", e.Err)
}
func (e *VerificationUnavailableError) Category() string { return "VERIFICATION_UNAVAILABLE" }
func (e *VerificationUnavailableError) HTTPStatus() int  { return http.StatusServiceUnavailable } // 503
func (e *VerificationUnavailableError) Unwrap() error    { return e.Err }

// NewVerificationUnavailableError cria um erro retryável de verificação indisponível.
func NewVerificationUnavailableError(err error) AppError {
	return &VerificationUnavailableError{Err: err}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if errors.As(err, &appErr) {
		// O erro é tipado (ValidationError, NotFoundError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	// Tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
