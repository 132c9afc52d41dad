package checkoutservice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
	"github.com/Rafargb/nomadsapiens/internal/pkg/payments"
)

// EnrollmentRepository define o contrato de escrita de matrícula que este
// Serviço espera da camada de Persistência. A reconciliação é o ÚNICO
// escritor lógico de enrollments em todo o sistema.
type EnrollmentRepository interface {
	Insert(ctx context.Context, userID string, courseID int64) (domain.Enrollment, error)
}

// CourseRepository define o contrato de leitura de curso usado na criação da cobrança.
type CourseRepository interface {
	FindByID(ctx context.Context, id int64) (domain.Course, error)
}

// Receipt é o resultado de uma reconciliação bem-sucedida.
type Receipt struct {
	UserID   string `json:"user_id"`
	CourseID int64  `json:"course_id"`
}

// Service implementa o fluxo de compra: criar a cobrança no processador com a
// metadata de comprador/produto, e reconciliar a confirmação em exatamente uma
// matrícula durável — de forma idempotente, mesmo sob retries e chamadas
// duplicadas concorrentes.
type Service struct {
	payments    payments.Client
	enrollments EnrollmentRepository
	courses     CourseRepository
	logger      logger.Logger
}

// NewService cria o serviço de checkout, injetando o cliente do processador e os repositórios.
func NewService(paymentsClient payments.Client, enrollments EnrollmentRepository, courses CourseRepository, log logger.Logger) *Service {
	return &Service{
		payments:    paymentsClient,
		enrollments: enrollments,
		courses:     courses,
		logger:      log,
	}
}

// CreateCharge cria um PaymentIntent para o usuário autenticado comprar o curso.
// O preço vem do banco (nunca do corpo da requisição) e a metadata de
// comprador/produto é gravada na cobrança AGORA, antes do pagamento — ela será
// a única fonte autoritativa na reconciliação.
func (s *Service) CreateCharge(ctx domain.Context, user domain.User, courseID int64) (payments.Intent, error) {
	if user.ID == "" {
		return payments.Intent{}, apperror.NewUnauthorizedError("Compra exige usuário autenticado.")
	}
	if courseID <= 0 {
		return payments.Intent{}, apperror.NewValidationError("ID do curso inválido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	course, err := s.courses.FindByID(ctxGo, courseID)
	if err != nil {
		return payments.Intent{}, err
	}
	if !course.IsLocked {
		return payments.Intent{}, apperror.NewValidationError("Curso gratuito não exige compra.")
	}

	// Centavos de BRL, com arredondamento (49.90 -> 4990).
	amount := int64(math.Round(course.Price * 100))
	if amount <= 0 {
		return payments.Intent{}, apperror.NewValidationError("Curso travado sem preço válido.")
	}

	intent, err := s.payments.CreatePaymentIntent(ctxGo, payments.CreateIntentRequest{
		Amount:      amount,
		Currency:    "brl",
		Description: fmt.Sprintf("Curso: %s", course.Title),
		Metadata: payments.ChargeMetadata{
			UserID:    user.ID,
			CourseID:  strconv.FormatInt(course.ID, 10),
			UserEmail: user.Email,
		},
	})
	if err != nil {
		s.logger.Error("Falha ao criar cobrança no processador.", err)
		if errors.Is(err, payments.ErrUnavailable) {
			return payments.Intent{}, apperror.NewVerificationUnavailableError(err)
		}
		return payments.Intent{}, apperror.NewInternalError("Falha ao criar cobrança no processador.", err)
	}

	s.logger.Info("Cobrança criada no processador.", map[string]interface{}{
		"intent_id": intent.ID, "user_id": user.ID, "course_id": course.ID, "amount": amount,
	})
	return intent, nil
}

// Reconcile converte uma referência de confirmação ("cs_..." ou "pi_...") em
// uma matrícula durável. Pode ser chamada um número ilimitado de vezes com a
// mesma referência: após a primeira confirmação bem-sucedida, toda chamada
// converge para a mesma Receipt e exatamente uma linha em enrollments.
//
// caller é a identidade autenticada do chamador, se houver (ID vazio =
// checkout de convidado); quando presente, precisa bater com o comprador
// gravado na metadata da cobrança.
func (s *Service) Reconcile(ctx domain.Context, rawReference string, caller domain.User) (Receipt, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
	}

	// 1. Classifica a referência (variante etiquetada session/intent).
	ref, err := payments.ParseReference(rawReference)
	if err != nil {
		return Receipt{}, apperror.NewValidationError(err.Error())
	}

	// 2. Consulta o processador. Falha de rede NÃO vira "não pago": é uma
	// falha retryável distinta, para a UI saber que o cliente pode ter sido cobrado.
	charge, err := s.payments.RetrieveCharge(ctxGo, ref)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidReference) {
			return Receipt{}, apperror.NewValidationError(err.Error())
		}
		s.logger.Error("Verificação de pagamento indisponível.", err)
		return Receipt{}, apperror.NewVerificationUnavailableError(err)
	}

	// 3. Só sucesso FINAL do processador segue adiante; estados ambíguos
	// (processing, requires_action, ...) são terminais aqui.
	if !charge.Succeeded() {
		s.logger.Info("Pagamento não confirmado pelo processador.", map[string]interface{}{
			"reference": ref.ID, "status": charge.Status,
		})
		return Receipt{}, apperror.NewPaymentNotSuccessfulError(charge.Status)
	}

	// 4. Comprador e produto saem EXCLUSIVAMENTE da metadata gravada na
	// criação da cobrança — nunca de campos do corpo da confirmação.
	buyerID := charge.Metadata.UserID
	courseID, convErr := strconv.ParseInt(charge.Metadata.CourseID, 10, 64)
	if buyerID == "" || convErr != nil || courseID <= 0 {
		s.logger.Error("Cobrança confirmada sem metadata de comprador/produto utilizável.",
			fmt.Errorf("user_id=%q course_id=%q", charge.Metadata.UserID, charge.Metadata.CourseID))
		return Receipt{}, apperror.NewValidationError("Cobrança sem identificação de comprador/curso.")
	}

	// 5. Chamador autenticado divergente do comprador não grava nada.
	// Sem chamador (checkout de convidado), a metadata verificada basta.
	if caller.ID != "" && caller.ID != buyerID {
		s.logger.Warn("Confirmação de pagamento com chamador divergente do comprador.", map[string]interface{}{
			"caller_id": caller.ID, "buyer_id": buyerID, "reference": ref.ID,
		})
		return Receipt{}, apperror.NewUnauthorizedError("A confirmação pertence a outro comprador.")
	}

	// 6. Grava a matrícula. O índice único (user_id, course_id) arbitra
	// inserções concorrentes: a duplicata degrada para sucesso idempotente.
	_, err = s.enrollments.Insert(ctxGo, buyerID, courseID)
	if err != nil {
		if apperror.IsDuplicate(err) {
			s.logger.Debug("Reconfirmação idempotente: matrícula já existia.", map[string]interface{}{
				"user_id": buyerID, "course_id": courseID, "reference": ref.ID,
			})
			return Receipt{UserID: buyerID, CourseID: courseID}, nil
		}
		// Erro genuíno de storage: a UI precisa oferecer retry, não fingir sucesso.
		s.logger.Error("Falha de storage ao gravar matrícula.", err)
		return Receipt{}, err
	}

	s.logger.Info("Compra reconciliada em matrícula.", map[string]interface{}{
		"user_id": buyerID, "course_id": courseID, "reference": ref.ID,
	})
	return Receipt{UserID: buyerID, CourseID: courseID}, nil
}
