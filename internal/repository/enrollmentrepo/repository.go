package enrollmentrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
)

// Código de violação de unicidade do PostgreSQL.
const pqUniqueViolation = "23505"

// EnrollmentRepository é a camada de acesso a dados das matrículas.
// A tabela enrollments tem UNIQUE (user_id, course_id): esse índice é o
// único mecanismo de arbitragem entre inserções concorrentes da mesma
// matrícula — nenhum lock de aplicação é usado.
type EnrollmentRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewEnrollmentRepository cria uma nova instância do EnrollmentRepository, injetando o DB.
func NewEnrollmentRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *EnrollmentRepository {
	return &EnrollmentRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// Insert grava a matrícula (user_id, course_id). Se o índice único reportar
// que a linha já existe, devolve um DuplicateError tipado — o service decide
// se isso é erro (cadastro) ou sucesso idempotente (reconciliação de compra).
func (r *EnrollmentRepository) Insert(ctx context.Context, userID string, courseID int64) (domain.Enrollment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO enrollments (user_id, course_id, created_at)
	                   VALUES ($1, $2, $3)
	                   RETURNING id`

	enrollment := domain.Enrollment{
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}

	err := r.DB.QueryRowContext(ctxTimeout, insertSQL,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.CreatedAt,
	).Scan(&enrollment.ID)

	if err != nil {
		// Violação de unicidade exige inspecionar o erro do driver pq.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			r.logger.Debug("Matrícula já existente (índice único).", map[string]interface{}{"user_id": userID, "course_id": courseID})
			return domain.Enrollment{}, apperror.NewDuplicateError(
				fmt.Sprintf("Matrícula já existe para o usuário %s no curso %d.", userID, courseID), err)
		}

		r.logger.Error("Falha ao inserir matrícula no DB.", err)
		return domain.Enrollment{}, apperror.NewDBError("failed to insert enrollment", err)
	}

	r.logger.Info("Matrícula gravada com sucesso.", map[string]interface{}{"user_id": userID, "course_id": courseID})
	return enrollment, nil
}

// Find busca a matrícula de um usuário em um curso.
// Ausência é um NotFoundError tipado, não um erro genérico.
func (r *EnrollmentRepository) Find(ctx context.Context, userID string, courseID int64) (domain.Enrollment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, user_id, course_id, created_at
	               FROM enrollments
	               WHERE user_id = $1 AND course_id = $2`

	var enrollment domain.Enrollment
	err := r.DB.QueryRowContext(ctxTimeout, query, userID, courseID).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseID,
		&enrollment.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Enrollment{}, apperror.NewNotFoundError(
			fmt.Sprintf("Usuário %s não está matriculado no curso %d.", userID, courseID))
	}
	if err != nil {
		return domain.Enrollment{}, apperror.NewDBError("Falha ao buscar matrícula no DB", err)
	}

	return enrollment, nil
}

// ListByUser lista as matrículas de um usuário (tela "meus cursos").
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, user_id, course_id, created_at
	               FROM enrollments
	               WHERE user_id = $1
	               ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar matrículas no DB", err)
	}
	defer rows.Close()

	enrollments := []domain.Enrollment{}
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear matrícula do DB", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar matrículas do DB", err)
	}

	return enrollments, nil
}
