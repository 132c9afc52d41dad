package accessservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
	"github.com/Rafargb/nomadsapiens/internal/service/accessservice"
)

// MockEnrollmentRepository é uma implementação mock da interface EnrollmentRepository
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Find(ctx context.Context, userID string, courseID int64) (domain.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(domain.Enrollment), args.Error(1)
}

func newAccessService(repo accessservice.EnrollmentRepository, operatorEmails []string, previewEnabled bool) *accessservice.Service {
	return accessservice.NewService(repo, operatorEmails, previewEnabled, logger.NewLogger("debug"))
}

// TestDecideCourse_UnlockedCourse_AllowsAnonymous testa que curso destravado
// é liberado até para visitante sem identidade.
func TestDecideCourse_UnlockedCourse_AllowsAnonymous(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	course := domain.Course{ID: 1, Title: "Curso Gratuito", IsLocked: false}

	decision := svc.DecideCourse(context.Background(), domain.User{}, course)

	assert.Equal(t, domain.DecisionAllow, decision)
	assert.True(t, decision.Allowed())
	// Curso destravado não consulta matrícula.
	mockRepo.AssertNotCalled(t, "Find")
}

// TestDecideCourse_LockedCourse_DeniesAnonymous testa que conteúdo travado
// nega visitante anônimo sem consultar o banco.
func TestDecideCourse_LockedCourse_DeniesAnonymous(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	course := domain.Course{ID: 2, Title: "Curso Pago", IsLocked: true, Price: 49.90}

	decision := svc.DecideCourse(context.Background(), domain.User{}, course)

	assert.Equal(t, domain.DecisionDeny, decision)
	mockRepo.AssertNotCalled(t, "Find")
}

// TestDecideCourse_EnrolledUser_Allows testa que a matrícula presente libera o curso travado.
func TestDecideCourse_EnrolledUser_Allows(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	userID := uuid.New().String()
	user := domain.User{ID: userID, Email: "aluno@example.com", Role: domain.RoleUser}
	course := domain.Course{ID: 3, IsLocked: true, Price: 99.00}

	mockRepo.On("Find", mock.Anything, userID, int64(3)).
		Return(domain.Enrollment{ID: 10, UserID: userID, CourseID: 3}, nil)

	decision := svc.DecideCourse(context.Background(), user, course)

	assert.Equal(t, domain.DecisionAllow, decision)
	mockRepo.AssertExpectations(t)
}

// TestDecideCourse_NotEnrolledUser_Denies testa que ausência de matrícula nega o curso travado.
func TestDecideCourse_NotEnrolledUser_Denies(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	userID := uuid.New().String()
	user := domain.User{ID: userID, Email: "aluno@example.com", Role: domain.RoleUser}
	course := domain.Course{ID: 3, IsLocked: true}

	mockRepo.On("Find", mock.Anything, userID, int64(3)).
		Return(domain.Enrollment{}, apperror.NewNotFoundError("Matrícula não encontrada."))

	decision := svc.DecideCourse(context.Background(), user, course)

	assert.Equal(t, domain.DecisionDeny, decision)
	mockRepo.AssertExpectations(t)
}

// TestDecideCourse_RepositoryFailure_FailsClosed testa que erro de
// infraestrutura na consulta de matrícula NUNCA libera o conteúdo.
func TestDecideCourse_RepositoryFailure_FailsClosed(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	userID := uuid.New().String()
	user := domain.User{ID: userID, Role: domain.RoleUser}
	course := domain.Course{ID: 4, IsLocked: true}

	mockRepo.On("Find", mock.Anything, userID, int64(4)).
		Return(domain.Enrollment{}, apperror.NewDBError("Falha ao buscar matrícula", assert.AnError))

	decision := svc.DecideCourse(context.Background(), user, course)

	assert.Equal(t, domain.DecisionDeny, decision)
	mockRepo.AssertExpectations(t)
}

// TestDecideCourse_OperatorRole_BypassesEnrollment testa que role admin no
// token libera conteúdo travado sem consultar matrícula.
func TestDecideCourse_OperatorRole_BypassesEnrollment(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	user := domain.User{ID: uuid.New().String(), Email: "qualquer@example.com", Role: domain.RoleAdmin}
	course := domain.Course{ID: 5, IsLocked: true}

	decision := svc.DecideCourse(context.Background(), user, course)

	assert.Equal(t, domain.DecisionAllow, decision)
	mockRepo.AssertNotCalled(t, "Find")
}

// TestDecideCourse_OperatorAllowList_BypassesEnrollment testa a allow-list de
// emails de operador (comparação case-insensitive).
func TestDecideCourse_OperatorAllowList_BypassesEnrollment(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, []string{"suporte@nomadsapiens.com"}, true)

	user := domain.User{ID: uuid.New().String(), Email: "Suporte@NomadSapiens.com", Role: domain.RoleUser}
	course := domain.Course{ID: 5, IsLocked: true}

	decision := svc.DecideCourse(context.Background(), user, course)

	assert.Equal(t, domain.DecisionAllow, decision)
	mockRepo.AssertNotCalled(t, "Find")
}

// TestIsOperator_AnonymousNeverOperator testa que visitante anônimo nunca é
// operador, mesmo que o email coincida com a allow-list.
func TestIsOperator_AnonymousNeverOperator(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, []string{"suporte@nomadsapiens.com"}, true)

	assert.False(t, svc.IsOperator(domain.User{Email: "suporte@nomadsapiens.com"}))
	assert.False(t, svc.IsOperator(domain.User{}))
}

// TestDecideLesson_UnlockedLessonInLockedCourse_PreviewAllows testa a prévia
// gratuita: aula destravada libera mesmo sem matrícula e sem identidade.
func TestDecideLesson_UnlockedLessonInLockedCourse_PreviewAllows(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	course := domain.Course{ID: 6, IsLocked: true}
	lesson := domain.Lesson{ID: 60, CourseID: 6, Title: "Introdução", IsLocked: false}

	decision := svc.DecideLesson(context.Background(), domain.User{}, course, lesson)

	assert.Equal(t, domain.DecisionAllow, decision)
	mockRepo.AssertNotCalled(t, "Find")
}

// TestDecideLesson_PreviewDisabled_RequiresEnrollment testa que com a prévia
// desabilitada a aula destravada de curso travado volta a exigir matrícula.
func TestDecideLesson_PreviewDisabled_RequiresEnrollment(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, false)

	course := domain.Course{ID: 6, IsLocked: true}
	lesson := domain.Lesson{ID: 60, CourseID: 6, IsLocked: false}

	decision := svc.DecideLesson(context.Background(), domain.User{}, course, lesson)

	assert.Equal(t, domain.DecisionDeny, decision)
}

// TestDecideLesson_LockedLessonInLockedCourse_DeniesWithoutEnrollment testa que
// aula travada de curso travado nega usuário sem matrícula.
func TestDecideLesson_LockedLessonInLockedCourse_DeniesWithoutEnrollment(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	userID := uuid.New().String()
	user := domain.User{ID: userID, Role: domain.RoleUser}
	course := domain.Course{ID: 7, IsLocked: true}
	lesson := domain.Lesson{ID: 70, CourseID: 7, IsLocked: true}

	mockRepo.On("Find", mock.Anything, userID, int64(7)).
		Return(domain.Enrollment{}, apperror.NewNotFoundError("Matrícula não encontrada."))

	decision := svc.DecideLesson(context.Background(), user, course, lesson)

	assert.Equal(t, domain.DecisionDeny, decision)
	mockRepo.AssertExpectations(t)
}

// TestDecideLesson_LessonFromAnotherCourse_Denies testa o falha-fechado quando
// a aula informada não pertence ao curso informado.
func TestDecideLesson_LessonFromAnotherCourse_Denies(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	user := domain.User{ID: uuid.New().String(), Role: domain.RoleAdmin}
	course := domain.Course{ID: 8, IsLocked: false}
	lesson := domain.Lesson{ID: 90, CourseID: 9, IsLocked: false}

	decision := svc.DecideLesson(context.Background(), user, course, lesson)

	// Mesmo operador e curso destravado: aula divergente nega sempre.
	assert.Equal(t, domain.DecisionDeny, decision)
	mockRepo.AssertNotCalled(t, "Find")
}

// TestDecideLesson_EnrolledUser_AllowsLockedLesson testa o caminho feliz do
// aluno matriculado assistindo aula travada.
func TestDecideLesson_EnrolledUser_AllowsLockedLesson(t *testing.T) {
	mockRepo := new(MockEnrollmentRepository)
	svc := newAccessService(mockRepo, nil, true)

	userID := uuid.New().String()
	user := domain.User{ID: userID, Email: "aluno@example.com", Role: domain.RoleUser}
	course := domain.Course{ID: 10, IsLocked: true}
	lesson := domain.Lesson{ID: 100, CourseID: 10, IsLocked: true}

	mockRepo.On("Find", mock.Anything, userID, int64(10)).
		Return(domain.Enrollment{ID: 1, UserID: userID, CourseID: 10}, nil)

	decision := svc.DecideLesson(context.Background(), user, course, lesson)

	assert.Equal(t, domain.DecisionAllow, decision)
	mockRepo.AssertExpectations(t)
}
