package courseservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
	"github.com/Rafargb/nomadsapiens/internal/service/courseservice"
)

// MockCourseRepository é uma implementação mock da interface CourseRepository
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Save(ctx context.Context, course domain.Course) (domain.Course, error) {
	args := m.Called(ctx, course)
	return args.Get(0).(domain.Course), args.Error(1)
}

func (m *MockCourseRepository) FindByID(ctx context.Context, id int64) (domain.Course, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Course), args.Error(1)
}

func (m *MockCourseRepository) FindAll(ctx context.Context, filter domain.CourseFilter) ([]domain.Course, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Course), args.Error(1)
}

func (m *MockCourseRepository) Update(ctx context.Context, course domain.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

// MockEnrollmentRepository é uma implementação mock da interface EnrollmentRepository
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Enrollment), args.Error(1)
}

// TestGetCourses_Success testa a listagem do catálogo com filtro de categoria.
func TestGetCourses_Success(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	mockEnrollments := new(MockEnrollmentRepository)
	svc := courseservice.NewService(mockRepo, mockEnrollments, logger.NewLogger("debug"))

	expectedCourses := []domain.Course{
		{ID: 1, Title: "Go Básico", Category: "popular"},
		{ID: 2, Title: "Go Avançado", Category: "popular"},
	}
	mockRepo.On("FindAll", mock.Anything, domain.CourseFilter{Page: 1, Limit: 10, Category: "popular"}).
		Return(expectedCourses, nil)

	courses, err := svc.GetCourses(context.Background(), 1, 10, "popular")

	assert.NoError(t, err)
	assert.Len(t, courses, 2)
	assert.Equal(t, expectedCourses, courses)
	mockRepo.AssertExpectations(t)
}

// TestGetCourses_PaginationSafeguards testa a normalização de página/limite inválidos.
func TestGetCourses_PaginationSafeguards(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	mockEnrollments := new(MockEnrollmentRepository)
	svc := courseservice.NewService(mockRepo, mockEnrollments, logger.NewLogger("debug"))

	// page 0 vira 1, limit 999 é capado em 50.
	mockRepo.On("FindAll", mock.Anything, domain.CourseFilter{Page: 1, Limit: 50}).
		Return([]domain.Course{}, nil)

	_, err := svc.GetCourses(context.Background(), 0, 999, "")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestCreateCourse_Success testa a criação de curso pelo estúdio de conteúdo.
func TestCreateCourse_Success(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	mockEnrollments := new(MockEnrollmentRepository)
	svc := courseservice.NewService(mockRepo, mockEnrollments, logger.NewLogger("debug"))

	input := domain.Course{Title: "Go Avançado", Price: 49.90, IsLocked: true, Category: "popular"}
	mockRepo.On("Save", mock.Anything, input).
		Return(domain.Course{ID: 1, Title: "Go Avançado", Price: 49.90, IsLocked: true, Category: "popular"}, nil)

	created, err := svc.CreateCourse(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	mockRepo.AssertExpectations(t)
}

// TestCreateCourse_DefaultCategory testa que um curso sem categoria cai na vitrine "popular".
func TestCreateCourse_DefaultCategory(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	mockEnrollments := new(MockEnrollmentRepository)
	svc := courseservice.NewService(mockRepo, mockEnrollments, logger.NewLogger("debug"))

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(c domain.Course) bool {
		return c.Category == "popular"
	})).Return(domain.Course{ID: 2, Title: "Curso Aberto", Category: "popular"}, nil)

	_, err := svc.CreateCourse(context.Background(), domain.Course{Title: "Curso Aberto"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestCreateCourse_ValidationErrors testa as regras de título e preço.
func TestCreateCourse_ValidationErrors(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	mockEnrollments := new(MockEnrollmentRepository)
	svc := courseservice.NewService(mockRepo, mockEnrollments, logger.NewLogger("debug"))

	cases := []domain.Course{
		{Title: "   "},                                 // título vazio
		{Title: "Curso", Price: -1},                    // preço negativo
		{Title: "Curso Pago", IsLocked: true, Price: 0}, // travado sem preço
	}
	for _, input := range cases {
		_, err := svc.CreateCourse(context.Background(), input)

		assert.Error(t, err)
		var validation *apperror.ValidationError
		assert.ErrorAs(t, err, &validation)
	}
	mockRepo.AssertNotCalled(t, "Save")
}

// TestGetCourseByID_InvalidID testa a rejeição de IDs não positivos antes do repositório.
func TestGetCourseByID_InvalidID(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	mockEnrollments := new(MockEnrollmentRepository)
	svc := courseservice.NewService(mockRepo, mockEnrollments, logger.NewLogger("debug"))

	_, err := svc.GetCourseByID(context.Background(), 0)

	assert.Error(t, err)
	var validation *apperror.ValidationError
	assert.ErrorAs(t, err, &validation)
	mockRepo.AssertNotCalled(t, "FindByID")
}

// TestGetEnrolledCourses_SkipsMissingCourse testa que matrícula órfã (curso
// removido) não derruba a listagem dos demais cursos.
func TestGetEnrolledCourses_SkipsMissingCourse(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	mockEnrollments := new(MockEnrollmentRepository)
	svc := courseservice.NewService(mockRepo, mockEnrollments, logger.NewLogger("debug"))

	userID := uuid.New().String()
	mockEnrollments.On("ListByUser", mock.Anything, userID).Return([]domain.Enrollment{
		{ID: 1, UserID: userID, CourseID: 10},
		{ID: 2, UserID: userID, CourseID: 11},
	}, nil)
	mockRepo.On("FindByID", mock.Anything, int64(10)).
		Return(domain.Course{ID: 10, Title: "Curso Vivo"}, nil)
	mockRepo.On("FindByID", mock.Anything, int64(11)).
		Return(domain.Course{}, apperror.NewNotFoundError("Curso não encontrado."))

	courses, err := svc.GetEnrolledCourses(context.Background(), userID)

	assert.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, int64(10), courses[0].ID)
	mockEnrollments.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

// TestGetEnrolledCourses_AnonymousUnauthorized testa que a tela "meus cursos" exige identidade.
func TestGetEnrolledCourses_AnonymousUnauthorized(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	mockEnrollments := new(MockEnrollmentRepository)
	svc := courseservice.NewService(mockRepo, mockEnrollments, logger.NewLogger("debug"))

	_, err := svc.GetEnrolledCourses(context.Background(), "")

	assert.Error(t, err)
	var unauthorized *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
	mockEnrollments.AssertNotCalled(t, "ListByUser")
}
