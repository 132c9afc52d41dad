package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto deste pacote.
// Usamos um tipo int não-exportável em valor para garantir que a chave seja
// única e não haja conflito com outras chaves string.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims representa os dados do usuário extraídos do token JWT,
// que serão anexados ao contexto da requisição.
type UserClaims struct {
	UserID string
	Email  string
	Role   domain.UserRole
}

// User converte as claims para a entidade de domínio consumida pelos services.
func (c UserClaims) User() domain.User {
	return domain.User{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// bearerToken extrai o token do header Authorization: Bearer <token>.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// NewAuthMiddleware cria uma função de middleware que valida um JWT e anexa as
// claims (UserID, Email e Role) ao contexto da requisição. Sem token válido,
// a requisição é rejeitada com 401.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o Token do Header Authorization
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado.").Error(), http.StatusUnauthorized)
				return
			}

			// 2. Validar o Token
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, apperror.NewUnauthorizedError("Token inválido ou expirado.").Error(), http.StatusUnauthorized)
				return
			}

			// 3. Anexar Claims ao Contexto
			userClaims := UserClaims{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   domain.UserRole(claims.Role),
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, userClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// NewOptionalAuthMiddleware anexa as claims ao contexto QUANDO há um token
// válido, mas deixa a requisição seguir anônima quando não há. É o middleware
// das rotas de catálogo e de decisão de acesso: visitante anônimo é um estado
// legítimo (a decisão então falha-fechado para conteúdo travado).
// Um token presente porém inválido ainda é rejeitado com 401 — não degradamos
// silenciosamente uma credencial quebrada para "anônimo".
func NewOptionalAuthMiddleware(tokenSvc TokenService) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			tokenString, ok := bearerToken(r)
			if !ok {
				// Sem credencial: segue anônimo.
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, apperror.NewUnauthorizedError("Token inválido ou expirado.").Error(), http.StatusUnauthorized)
				return
			}

			userClaims := UserClaims{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   domain.UserRole(claims.Role),
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, userClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// PermissionMiddleware restringe o acesso às roles informadas (AuthZ).
// Deve ser aplicado depois do NewAuthMiddleware.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Tentar extrair as Claims do contexto
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado.").Error(), http.StatusUnauthorized)
				return
			}

			// 2. Verificar Permissão
			isAuthorized := false
			for _, requiredRole := range requiredRoles {
				if claims.Role == requiredRole {
					isAuthorized = true
					break
				}
			}

			if !isAuthorized {
				http.Error(w, apperror.NewUnauthorizedError("Acesso negado. Você não tem a permissão necessária.").Error(), http.StatusForbidden) // 403 Forbidden
				return
			}

			// 3. Permissão concedida: Chama o próximo handler
			next.ServeHTTP(w, r)
		}
	}
}
