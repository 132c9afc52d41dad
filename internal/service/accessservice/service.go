package accessservice

import (
	"context"
	"errors"
	"strings"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
)

// EnrollmentRepository define o contrato que este Serviço espera da
// camada de Persistência para consultar matrículas.
type EnrollmentRepository interface {
	Find(ctx context.Context, userID string, courseID int64) (domain.Enrollment, error)
}

// Service decide, para um (usuário, curso, aula), se a reprodução é
// permitida. É uma função de leitura pura: nenhum efeito colateral, segura
// de chamar a cada requisição. Em QUALQUER incerteza (repositório fora do
// ar, aula de outro curso) a decisão falha-fechado: DENY, nunca ALLOW.
type Service struct {
	enrollments    EnrollmentRepository
	operatorEmails []string
	previewEnabled bool
	logger         logger.Logger
}

// NewService cria o serviço de decisão de acesso.
// operatorEmails é a allow-list de config; previewEnabled controla se uma
// aula destravada vale como prévia gratuita em curso travado.
func NewService(enrollments EnrollmentRepository, operatorEmails []string, previewEnabled bool, log logger.Logger) *Service {
	return &Service{
		enrollments:    enrollments,
		operatorEmails: operatorEmails,
		previewEnabled: previewEnabled,
		logger:         log,
	}
}

// IsOperator é o único ponto do sistema que decide se um usuário é operador
// de conteúdo (bypass total de compra, para pré-visualizar material travado).
// A decisão vem da claim de role emitida no JWT pelo próprio backend, mais a
// allow-list de emails da config — nunca de texto livre controlado pelo cliente.
func (s *Service) IsOperator(user domain.User) bool {
	if user.ID == "" {
		return false
	}
	if user.Role == domain.RoleAdmin {
		return true
	}
	for _, email := range s.operatorEmails {
		if strings.EqualFold(email, user.Email) {
			return true
		}
	}
	return false
}

// DecideCourse responde "este usuário pode assistir este curso?".
// user com ID vazio representa visitante anônimo.
func (s *Service) DecideCourse(ctx domain.Context, user domain.User, course domain.Course) domain.Decision {
	return s.decide(ctx, user, course, nil)
}

// DecideLesson responde "este usuário pode assistir esta aula?", aplicando a
// política de prévia gratuita por aula.
func (s *Service) DecideLesson(ctx domain.Context, user domain.User, course domain.Course, lesson domain.Lesson) domain.Decision {
	return s.decide(ctx, user, course, &lesson)
}

func (s *Service) decide(ctx domain.Context, user domain.User, course domain.Course, lesson *domain.Lesson) domain.Decision {
	// Aula de outro curso é um erro do chamador: falha-fechado.
	if lesson != nil && lesson.CourseID != course.ID {
		s.logger.Warn("Decisão de acesso com aula de curso divergente.", map[string]interface{}{
			"course_id": course.ID, "lesson_id": lesson.ID, "lesson_course_id": lesson.CourseID,
		})
		return domain.DecisionDeny
	}

	// 1. Curso destravado é conteúdo gratuito, para qualquer visitante.
	if !course.IsLocked {
		return domain.DecisionAllow
	}

	// 2. Operador de conteúdo ignora a checagem de compra.
	if s.IsOperator(user) {
		return domain.DecisionAllow
	}

	// 3. Prévia gratuita: aula destravada libera SÓ aquela aula, mesmo com o
	// curso travado e sem matrícula (inclusive para anônimo).
	if lesson != nil && s.previewEnabled && !lesson.IsLocked {
		return domain.DecisionAllow
	}

	// 4. Conteúdo travado sem identidade: nega.
	if user.ID == "" {
		return domain.DecisionDeny
	}

	// 5. Consulta a matrícula; presença libera, ausência nega.
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	_, err := s.enrollments.Find(ctxGo, user.ID, course.ID)
	if err != nil {
		var notFound *apperror.NotFoundError
		if !errors.As(err, &notFound) {
			// Repositório indisponível: falha-fechado, nunca falha-aberto.
			s.logger.Error("Falha ao consultar matrícula; negando acesso (fail-closed).", err)
		}
		return domain.DecisionDeny
	}

	return domain.DecisionAllow
}
