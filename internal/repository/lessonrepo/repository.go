package lessonrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
)

// LessonRepository é a camada de acesso a dados das aulas.
type LessonRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewLessonRepository cria uma nova instância do LessonRepository, injetando o DB.
func NewLessonRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *LessonRepository {
	return &LessonRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// Save insere uma nova aula e devolve a entidade com o ID gerado.
func (r *LessonRepository) Save(ctx context.Context, lesson domain.Lesson) (domain.Lesson, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO lessons (course_id, title, description, video_url, is_locked, position, created_at)
	                   VALUES ($1, $2, $3, $4, $5, $6, $7)
	                   RETURNING id`

	lesson.CreatedAt = time.Now().UTC()

	err := r.DB.QueryRowContext(ctxTimeout, insertSQL,
		lesson.CourseID,
		lesson.Title,
		lesson.Description,
		lesson.VideoURL,
		lesson.IsLocked,
		lesson.Position,
		lesson.CreatedAt,
	).Scan(&lesson.ID)

	if err != nil {
		r.logger.Error("Falha ao inserir aula no DB.", err)
		return domain.Lesson{}, apperror.NewDBError("failed to insert lesson", err)
	}

	return lesson, nil
}

// FindByID busca uma aula pelo ID.
func (r *LessonRepository) FindByID(ctx context.Context, id int64) (domain.Lesson, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, course_id, title, description, video_url, is_locked, position, created_at
	               FROM lessons WHERE id = $1`

	var lesson domain.Lesson
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&lesson.ID,
		&lesson.CourseID,
		&lesson.Title,
		&lesson.Description,
		&lesson.VideoURL,
		&lesson.IsLocked,
		&lesson.Position,
		&lesson.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lesson{}, apperror.NewNotFoundError(fmt.Sprintf("Aula com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Lesson{}, apperror.NewDBError("Falha ao buscar aula no DB", err)
	}

	return lesson, nil
}

// FindByCourse lista as aulas de um curso na ordem de exibição (position).
func (r *LessonRepository) FindByCourse(ctx context.Context, courseID int64) ([]domain.Lesson, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT id, course_id, title, description, video_url, is_locked, position, created_at
	               FROM lessons WHERE course_id = $1
	               ORDER BY position ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, courseID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar aulas no DB", err)
	}
	defer rows.Close()

	lessons := []domain.Lesson{}
	for rows.Next() {
		var l domain.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.VideoURL, &l.IsLocked, &l.Position, &l.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear aula do DB", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar aulas do DB", err)
	}

	return lessons, nil
}

// Delete remove uma aula do curso (operação do estúdio de conteúdo).
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDBError("Falha ao remover aula no DB", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Aula com ID %d não existe na base de dados.", id))
	}

	return nil
}
