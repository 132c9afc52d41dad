package checkoutservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
	"github.com/Rafargb/nomadsapiens/internal/pkg/payments"
	"github.com/Rafargb/nomadsapiens/internal/service/checkoutservice"
)

// MockPaymentsClient é uma implementação mock da interface payments.Client
type MockPaymentsClient struct {
	mock.Mock
}

func (m *MockPaymentsClient) CreatePaymentIntent(ctx context.Context, req payments.CreateIntentRequest) (payments.Intent, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payments.Intent), args.Error(1)
}

func (m *MockPaymentsClient) RetrieveCharge(ctx context.Context, ref payments.Reference) (payments.Charge, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(payments.Charge), args.Error(1)
}

// MockEnrollmentRepository é uma implementação mock da interface EnrollmentRepository
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Insert(ctx context.Context, userID string, courseID int64) (domain.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(domain.Enrollment), args.Error(1)
}

// MockCourseRepository é uma implementação mock da interface CourseRepository
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) FindByID(ctx context.Context, id int64) (domain.Course, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Course), args.Error(1)
}

func newCheckoutService(p payments.Client, e checkoutservice.EnrollmentRepository, c checkoutservice.CourseRepository) *checkoutservice.Service {
	return checkoutservice.NewService(p, e, c, logger.NewLogger("debug"))
}

// --- CreateCharge ---

// TestCreateCharge_Success testa a criação da cobrança com preço vindo do banco
// e metadata de comprador/curso anexada no momento da criação.
func TestCreateCharge_Success(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	userID := uuid.New().String()
	user := domain.User{ID: userID, Email: "aluno@example.com", Role: domain.RoleUser}
	course := domain.Course{ID: 7, Title: "Go Avançado", IsLocked: true, Price: 49.90}

	mockCourses.On("FindByID", mock.Anything, int64(7)).Return(course, nil)

	expectedReq := payments.CreateIntentRequest{
		Amount:      4990, // 49.90 em centavos, com arredondamento
		Currency:    "brl",
		Description: "Curso: Go Avançado",
		Metadata: payments.ChargeMetadata{
			UserID:    userID,
			CourseID:  "7",
			UserEmail: "aluno@example.com",
		},
	}
	mockPayments.On("CreatePaymentIntent", mock.Anything, expectedReq).
		Return(payments.Intent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: "requires_payment_method"}, nil)

	intent, err := svc.CreateCharge(context.Background(), user, 7)

	assert.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	mockCourses.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
}

// TestCreateCharge_AnonymousUser_Unauthorized testa que compra exige identidade.
func TestCreateCharge_AnonymousUser_Unauthorized(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	_, err := svc.CreateCharge(context.Background(), domain.User{}, 7)

	assert.Error(t, err)
	var unauthorized *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
	mockPayments.AssertNotCalled(t, "CreatePaymentIntent")
}

// TestCreateCharge_UnlockedCourse_Rejected testa que curso gratuito não gera cobrança.
func TestCreateCharge_UnlockedCourse_Rejected(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	user := domain.User{ID: uuid.New().String(), Email: "aluno@example.com"}
	mockCourses.On("FindByID", mock.Anything, int64(8)).
		Return(domain.Course{ID: 8, Title: "Curso Gratuito", IsLocked: false}, nil)

	_, err := svc.CreateCharge(context.Background(), user, 8)

	assert.Error(t, err)
	var validation *apperror.ValidationError
	assert.ErrorAs(t, err, &validation)
	mockPayments.AssertNotCalled(t, "CreatePaymentIntent")
}

// --- Reconcile ---

// TestReconcile_PaymentIntentSucceeded_CreatesEnrollment testa o caminho feliz
// com referência "pi_...".
func TestReconcile_PaymentIntentSucceeded_CreatesEnrollment(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	buyerID := uuid.New().String()
	ref := payments.Reference{Kind: payments.KindPaymentIntent, ID: "pi_abc"}

	mockPayments.On("RetrieveCharge", mock.Anything, ref).Return(payments.Charge{
		ID:     "pi_abc",
		Status: payments.StatusSucceeded,
		Metadata: payments.ChargeMetadata{
			UserID:   buyerID,
			CourseID: "12",
		},
	}, nil)
	mockEnrollments.On("Insert", mock.Anything, buyerID, int64(12)).
		Return(domain.Enrollment{ID: 1, UserID: buyerID, CourseID: 12}, nil)

	receipt, err := svc.Reconcile(context.Background(), "pi_abc", domain.User{ID: buyerID})

	assert.NoError(t, err)
	assert.Equal(t, checkoutservice.Receipt{UserID: buyerID, CourseID: 12}, receipt)
	mockPayments.AssertExpectations(t)
	mockEnrollments.AssertExpectations(t)
}

// TestReconcile_CheckoutSessionPaid_CreatesEnrollment testa o caminho feliz com
// referência "cs_..." (payment_status "paid").
func TestReconcile_CheckoutSessionPaid_CreatesEnrollment(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	buyerID := uuid.New().String()
	ref := payments.Reference{Kind: payments.KindCheckoutSession, ID: "cs_xyz"}

	mockPayments.On("RetrieveCharge", mock.Anything, ref).Return(payments.Charge{
		ID:     "cs_xyz",
		Status: payments.StatusPaid,
		Metadata: payments.ChargeMetadata{
			UserID:   buyerID,
			CourseID: "3",
		},
	}, nil)
	mockEnrollments.On("Insert", mock.Anything, buyerID, int64(3)).
		Return(domain.Enrollment{ID: 2, UserID: buyerID, CourseID: 3}, nil)

	// Checkout de convidado: sem chamador autenticado.
	receipt, err := svc.Reconcile(context.Background(), "cs_xyz", domain.User{})

	assert.NoError(t, err)
	assert.Equal(t, checkoutservice.Receipt{UserID: buyerID, CourseID: 3}, receipt)
	mockEnrollments.AssertExpectations(t)
}

// TestReconcile_DuplicateEnrollment_IdempotentSuccess testa que a violação de
// unicidade degrada para o MESMO sucesso da primeira chamada.
func TestReconcile_DuplicateEnrollment_IdempotentSuccess(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	buyerID := uuid.New().String()
	ref := payments.Reference{Kind: payments.KindPaymentIntent, ID: "pi_retry"}

	mockPayments.On("RetrieveCharge", mock.Anything, ref).Return(payments.Charge{
		ID:     "pi_retry",
		Status: payments.StatusSucceeded,
		Metadata: payments.ChargeMetadata{
			UserID:   buyerID,
			CourseID: "12",
		},
	}, nil)
	mockEnrollments.On("Insert", mock.Anything, buyerID, int64(12)).
		Return(domain.Enrollment{}, apperror.NewDuplicateError("Matrícula já existente.", assert.AnError))

	receipt, err := svc.Reconcile(context.Background(), "pi_retry", domain.User{ID: buyerID})

	assert.NoError(t, err)
	assert.Equal(t, checkoutservice.Receipt{UserID: buyerID, CourseID: 12}, receipt)
	mockEnrollments.AssertExpectations(t)
}

// TestReconcile_PaymentNotSucceeded_NoEnrollment testa que status ambíguo do
// processador é terminal e não grava nada.
func TestReconcile_PaymentNotSucceeded_NoEnrollment(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	ref := payments.Reference{Kind: payments.KindPaymentIntent, ID: "pi_pending"}
	mockPayments.On("RetrieveCharge", mock.Anything, ref).Return(payments.Charge{
		ID:     "pi_pending",
		Status: "processing",
		Metadata: payments.ChargeMetadata{
			UserID:   uuid.New().String(),
			CourseID: "5",
		},
	}, nil)

	_, err := svc.Reconcile(context.Background(), "pi_pending", domain.User{})

	assert.Error(t, err)
	var notPaid *apperror.PaymentNotSuccessfulError
	assert.ErrorAs(t, err, &notPaid)
	assert.Equal(t, "processing", notPaid.Status)
	mockEnrollments.AssertNotCalled(t, "Insert")
}

// TestReconcile_ProcessorUnavailable_RetryableError testa que falha de rede na
// verificação NÃO é tratada como "não pago".
func TestReconcile_ProcessorUnavailable_RetryableError(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	ref := payments.Reference{Kind: payments.KindCheckoutSession, ID: "cs_down"}
	mockPayments.On("RetrieveCharge", mock.Anything, ref).
		Return(payments.Charge{}, payments.ErrUnavailable)

	_, err := svc.Reconcile(context.Background(), "cs_down", domain.User{})

	assert.Error(t, err)
	var unavailable *apperror.VerificationUnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.NotErrorIs(t, err, payments.ErrInvalidReference)
	mockEnrollments.AssertNotCalled(t, "Insert")
}

// TestReconcile_MalformedReference_ValidationError testa a rejeição de
// referências sem prefixo conhecido, antes de falar com o processador.
func TestReconcile_MalformedReference_ValidationError(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	for _, raw := range []string{"", "   ", "tok_123", "ch_123"} {
		_, err := svc.Reconcile(context.Background(), raw, domain.User{})

		assert.Error(t, err)
		var validation *apperror.ValidationError
		assert.ErrorAs(t, err, &validation)
	}
	mockPayments.AssertNotCalled(t, "RetrieveCharge")
	mockEnrollments.AssertNotCalled(t, "Insert")
}

// TestReconcile_CallerMismatch_Unauthorized testa que chamador autenticado
// divergente do comprador da metadata não grava matrícula.
func TestReconcile_CallerMismatch_Unauthorized(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	buyerID := uuid.New().String()
	ref := payments.Reference{Kind: payments.KindPaymentIntent, ID: "pi_other"}
	mockPayments.On("RetrieveCharge", mock.Anything, ref).Return(payments.Charge{
		ID:     "pi_other",
		Status: payments.StatusSucceeded,
		Metadata: payments.ChargeMetadata{
			UserID:   buyerID,
			CourseID: "9",
		},
	}, nil)

	caller := domain.User{ID: uuid.New().String()}
	_, err := svc.Reconcile(context.Background(), "pi_other", caller)

	assert.Error(t, err)
	var unauthorized *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
	mockEnrollments.AssertNotCalled(t, "Insert")
}

// TestReconcile_MissingMetadata_ValidationError testa que cobrança confirmada
// sem metadata utilizável não gera matrícula.
func TestReconcile_MissingMetadata_ValidationError(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	ref := payments.Reference{Kind: payments.KindPaymentIntent, ID: "pi_blank"}
	mockPayments.On("RetrieveCharge", mock.Anything, ref).Return(payments.Charge{
		ID:       "pi_blank",
		Status:   payments.StatusSucceeded,
		Metadata: payments.ChargeMetadata{UserID: "", CourseID: "abc"},
	}, nil)

	_, err := svc.Reconcile(context.Background(), "pi_blank", domain.User{})

	assert.Error(t, err)
	var validation *apperror.ValidationError
	assert.ErrorAs(t, err, &validation)
	mockEnrollments.AssertNotCalled(t, "Insert")
}

// TestReconcile_StorageFailure_Propagates testa que erro genuíno de storage é
// devolvido ao chamador (para a UI oferecer retry), em vez de virar sucesso.
func TestReconcile_StorageFailure_Propagates(t *testing.T) {
	mockPayments := new(MockPaymentsClient)
	mockEnrollments := new(MockEnrollmentRepository)
	mockCourses := new(MockCourseRepository)
	svc := newCheckoutService(mockPayments, mockEnrollments, mockCourses)

	buyerID := uuid.New().String()
	ref := payments.Reference{Kind: payments.KindPaymentIntent, ID: "pi_db"}
	mockPayments.On("RetrieveCharge", mock.Anything, ref).Return(payments.Charge{
		ID:     "pi_db",
		Status: payments.StatusSucceeded,
		Metadata: payments.ChargeMetadata{
			UserID:   buyerID,
			CourseID: "4",
		},
	}, nil)

	dbErr := apperror.NewDBError("Falha ao gravar matrícula", assert.AnError)
	mockEnrollments.On("Insert", mock.Anything, buyerID, int64(4)).
		Return(domain.Enrollment{}, dbErr)

	_, err := svc.Reconcile(context.Background(), "pi_db", domain.User{ID: buyerID})

	assert.Error(t, err)
	assert.Equal(t, dbErr, err)
	mockEnrollments.AssertExpectations(t)
}
