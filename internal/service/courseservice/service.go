package courseservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
)

// Limites de paginação do catálogo.
const (
	defaultLimit = 10
	maxLimit     = 50
)

// CourseRepository define o contrato que este Serviço espera da camada de Persistência.
type CourseRepository interface {
	Save(ctx context.Context, course domain.Course) (domain.Course, error)
	FindByID(ctx context.Context, id int64) (domain.Course, error)
	FindAll(ctx context.Context, filter domain.CourseFilter) ([]domain.Course, error)
	Update(ctx context.Context, course domain.Course) error
}

// EnrollmentRepository é o contrato de leitura de matrículas para a tela "meus cursos".
type EnrollmentRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)
}

// Service é a lógica de negócio do catálogo e do estúdio de conteúdo.
type Service struct {
	repo        CourseRepository
	enrollments EnrollmentRepository
	logger      logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Curso.
func NewService(repo CourseRepository, enrollments EnrollmentRepository, log logger.Logger) *Service {
	return &Service{repo: repo, enrollments: enrollments, logger: log}
}

// CreateCourse valida e persiste um novo curso (rota do estúdio de conteúdo).
func (s *Service) CreateCourse(ctx domain.Context, course domain.Course) (domain.Course, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	// Validação de Regras de Negócio
	if strings.TrimSpace(course.Title) == "" {
		return domain.Course{}, apperror.NewValidationError("O título do curso é obrigatório.")
	}
	if course.Price < 0 {
		return domain.Course{}, apperror.NewValidationError("O preço do curso não pode ser negativo.")
	}
	if course.IsLocked && course.Price <= 0 {
		return domain.Course{}, apperror.NewValidationError("Curso travado precisa de um preço positivo.")
	}
	if course.Category == "" {
		course.Category = "popular"
	}

	created, err := s.repo.Save(ctxGo, course)
	if err != nil {
		return domain.Course{}, fmt.Errorf("falha ao salvar curso no repositório: %w", err)
	}

	return created, nil
}

// GetCourseByID busca um curso para a página de detalhe.
func (s *Service) GetCourseByID(ctx domain.Context, id int64) (domain.Course, error) {
	if id <= 0 {
		return domain.Course{}, apperror.NewValidationError("O ID do curso deve ser um inteiro positivo.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	return s.repo.FindByID(ctxGo, id)
}

// GetCourses lista o catálogo com paginação e filtro opcional de categoria.
func (s *Service) GetCourses(ctx domain.Context, page, limit int, category string) ([]domain.Course, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	// Salvaguardas de paginação
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filter := domain.CourseFilter{Page: page, Limit: limit, Category: category}

	courses, err := s.repo.FindAll(ctxGo, filter)
	if err != nil {
		return nil, apperror.NewInternalError("Falha interna ao buscar cursos.", err)
	}

	return courses, nil
}

// UpdateCourse aplica edições do estúdio de conteúdo.
func (s *Service) UpdateCourse(ctx domain.Context, course domain.Course) error {
	if course.ID <= 0 {
		return apperror.NewValidationError("O ID do curso deve ser um inteiro positivo.")
	}
	if strings.TrimSpace(course.Title) == "" {
		return apperror.NewValidationError("O título do curso é obrigatório.")
	}
	if course.Price < 0 {
		return apperror.NewValidationError("O preço do curso não pode ser negativo.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	return s.repo.Update(ctxGo, course)
}

// GetEnrolledCourses lista os cursos em que o usuário está matriculado.
func (s *Service) GetEnrolledCourses(ctx domain.Context, userID string) ([]domain.Course, error) {
	if userID == "" {
		return nil, apperror.NewUnauthorizedError("Listagem de matrículas exige usuário autenticado.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	enrollments, err := s.enrollments.ListByUser(ctxGo, userID)
	if err != nil {
		return nil, apperror.NewInternalError("Falha interna ao buscar matrículas.", err)
	}

	courses := []domain.Course{}
	for _, e := range enrollments {
		course, err := s.repo.FindByID(ctxGo, e.CourseID)
		if err != nil {
			// Curso removido do catálogo não derruba a listagem inteira.
			s.logger.Warn("Matrícula aponta para curso inexistente.", map[string]interface{}{
				"user_id": userID, "course_id": e.CourseID,
			})
			continue
		}
		courses = append(courses, course)
	}

	return courses, nil
}
