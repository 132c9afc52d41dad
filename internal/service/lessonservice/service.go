package lessonservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
)

// LessonRepository define o contrato que este Serviço espera da camada de Persistência.
type LessonRepository interface {
	Save(ctx context.Context, lesson domain.Lesson) (domain.Lesson, error)
	FindByID(ctx context.Context, id int64) (domain.Lesson, error)
	FindByCourse(ctx context.Context, courseID int64) ([]domain.Lesson, error)
	Delete(ctx context.Context, id int64) error
}

// CourseRepository é o contrato mínimo para validar que o curso da aula existe.
type CourseRepository interface {
	FindByID(ctx context.Context, id int64) (domain.Course, error)
}

// Service é a lógica de negócio das aulas (estúdio de conteúdo + player).
type Service struct {
	repo    LessonRepository
	courses CourseRepository
	logger  logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Aula.
func NewService(repo LessonRepository, courses CourseRepository, log logger.Logger) *Service {
	return &Service{repo: repo, courses: courses, logger: log}
}

// CreateLesson valida e persiste uma nova aula em um curso existente.
func (s *Service) CreateLesson(ctx domain.Context, lesson domain.Lesson) (domain.Lesson, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	if strings.TrimSpace(lesson.Title) == "" {
		return domain.Lesson{}, apperror.NewValidationError("O título da aula é obrigatório.")
	}
	if lesson.CourseID <= 0 {
		return domain.Lesson{}, apperror.NewValidationError("A aula precisa de um curso válido.")
	}
	if lesson.Position < 1 {
		lesson.Position = 1
	}

	// O curso precisa existir antes de receber aulas.
	if _, err := s.courses.FindByID(ctxGo, lesson.CourseID); err != nil {
		return domain.Lesson{}, err
	}

	created, err := s.repo.Save(ctxGo, lesson)
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("falha ao salvar aula no repositório: %w", err)
	}

	return created, nil
}

// GetLessonByID busca uma aula individual (usada pelo player).
func (s *Service) GetLessonByID(ctx domain.Context, id int64) (domain.Lesson, error) {
	if id <= 0 {
		return domain.Lesson{}, apperror.NewValidationError("O ID da aula deve ser um inteiro positivo.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	return s.repo.FindByID(ctxGo, id)
}

// GetLessonsByCourse lista as aulas de um curso na ordem de exibição.
func (s *Service) GetLessonsByCourse(ctx domain.Context, courseID int64) ([]domain.Lesson, error) {
	if courseID <= 0 {
		return nil, apperror.NewValidationError("O ID do curso deve ser um inteiro positivo.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	lessons, err := s.repo.FindByCourse(ctxGo, courseID)
	if err != nil {
		return nil, apperror.NewInternalError("Falha interna ao buscar aulas.", err)
	}

	return lessons, nil
}

// DeleteLesson remove uma aula (rota do estúdio de conteúdo).
func (s *Service) DeleteLesson(ctx domain.Context, id int64) error {
	if id <= 0 {
		return apperror.NewValidationError("O ID da aula deve ser um inteiro positivo.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	return s.repo.Delete(ctxGo, id)
}
