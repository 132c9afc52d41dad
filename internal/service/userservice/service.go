package userservice

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
	"github.com/Rafargb/nomadsapiens/internal/pkg/token"
)

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string, email string, userRole string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// Service é a lógica de negócio da entidade User (registro e login).
type Service struct {
	UserRepo domain.UserRepository
	TokenSvc TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do Serviço de Usuário, injetando o Repositório.
func NewService(repo domain.UserRepository, tokenSvc TokenService, log logger.Logger) *Service {
	return &Service{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		logger:   log,
	}
}

// Register registra um novo usuário no sistema.
// Faz o hashing da senha e lida com validações básicas.
func (s *Service) Register(ctx domain.Context, registration domain.UserRegistration) (domain.User, error) {
	// 1. Validação Básica
	registration.Email = strings.TrimSpace(strings.ToLower(registration.Email))
	if registration.Email == "" || registration.Password == "" {
		return domain.User{}, apperror.NewValidationError("Email e senha são obrigatórios.")
	}
	if len(registration.Password) < 8 {
		return domain.User{}, apperror.NewValidationError("A senha precisa de pelo menos 8 caracteres.")
	}

	// 2. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 3. Criação do Objeto User
	// Todo registro nasce com a role padrão; a role admin só é atribuída
	// fora da API (operação de banco), nunca por auto-cadastro.
	newUser := domain.User{
		Email:        registration.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// 4. Persistência (o repositório traduz email repetido em DuplicateError)
	created, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Usuário registrado com sucesso.", map[string]interface{}{"user_id": created.ID})
	return created, nil
}

// Login autentica o usuário e devolve um JWT assinado com id, email e role.
func (s *Service) Login(ctx domain.Context, email string, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			// Credencial errada e usuário inexistente respondem igual.
			return "", apperror.NewUnauthorizedError("Email ou senha incorretos.")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Email ou senha incorretos.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao emitir token de sessão.", err)
	}

	return tokenString, nil
}
