package courserepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/cache"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
)

// CourseRepository é a camada de acesso a dados dos cursos.
// Leituras por ID usam a estratégia Cache-Aside (Redis na frente do Postgres).
type CourseRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewCourseRepository cria e retorna uma nova instância do Repositório,
// injetando as dependências de Infraestrutura (DB e Cache).
func NewCourseRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *CourseRepository {
	return &CourseRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// Chave de cache para cursos.
const courseCacheKey = "course:%d"

// Save persiste um novo Curso e devolve a entidade com o ID gerado pelo banco.
func (r *CourseRepository) Save(ctx context.Context, course domain.Course) (domain.Course, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `INSERT INTO courses (title, description, category, price, thumbnail_url, is_locked, created_at, updated_at)
	                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	                   RETURNING id`

	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	err := r.DB.QueryRowContext(ctxTimeout, insertSQL,
		course.Title,
		course.Description,
		course.Category,
		course.Price,
		course.ThumbnailURL,
		course.IsLocked,
		course.CreatedAt,
		course.UpdatedAt,
	).Scan(&course.ID)

	if err != nil {
		r.logger.Error("Falha ao inserir curso no DB.", err)
		return domain.Course{}, apperror.NewDBError("failed to insert course", err)
	}

	r.logger.Info("Curso salvo com sucesso no repositório.", map[string]interface{}{"course_id": course.ID, "title": course.Title})
	return course, nil
}

// FindByID busca um curso pelo ID, utilizando a estratégia Cache-Aside.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (domain.Course, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(courseCacheKey, id)
	var course domain.Course

	// --- 1. Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &course) == nil {
			// Cache HIT
			return course, nil
		}
		// Se a desserialização falhar, segue para o DB.
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (e.g., conexão perdida): logamos, mas continuamos.
		r.logger.Warn("Falha ao ler curso do cache Redis.", map[string]interface{}{"course_id": id, "error": err.Error()})
	}

	// --- 2. Busca no Banco de Dados (PostgreSQL) ---
	const query = `
		SELECT id, title, description, category, price, thumbnail_url, is_locked, created_at, updated_at
		FROM courses
		WHERE id = $1`

	row := r.DB.QueryRowContext(ctxTimeout, query, id)

	err = row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Category,
		&course.Price,
		&course.ThumbnailURL,
		&course.IsLocked,
		&course.CreatedAt,
		&course.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Course{}, apperror.NewNotFoundError(fmt.Sprintf("Curso com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Course{}, apperror.NewDBError("Falha ao buscar curso no DB", err)
	}

	// --- 3. Cache-Aside (WRITE) ---
	if courseJSON, marshalErr := json.Marshal(course); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, courseJSON, r.CacheTTL)
	}

	return course, nil
}

// FindAll lista cursos do catálogo com paginação e filtro por categoria.
func (r *CourseRepository) FindAll(ctx context.Context, filter domain.CourseFilter) ([]domain.Course, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
		SELECT id, title, description, category, price, thumbnail_url, is_locked, created_at, updated_at
		FROM courses`
	args := []interface{}{}

	if filter.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, filter.Category)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar cursos no DB", err)
	}
	defer rows.Close()

	courses := []domain.Course{}
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Price, &c.ThumbnailURL, &c.IsLocked, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear curso do DB", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar cursos do DB", err)
	}

	return courses, nil
}

// Update atualiza um curso existente e invalida a entrada de cache.
func (r *CourseRepository) Update(ctx context.Context, course domain.Course) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE courses
	                   SET title = $1, description = $2, category = $3, price = $4, thumbnail_url = $5, is_locked = $6, updated_at = $7
	                   WHERE id = $8`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		course.Title,
		course.Description,
		course.Category,
		course.Price,
		course.ThumbnailURL,
		course.IsLocked,
		time.Now().UTC(),
		course.ID,
	)
	if err != nil {
		return apperror.NewDBError("Falha ao atualizar curso no DB", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Curso com ID %d não existe na base de dados.", course.ID))
	}

	// Invalidação: a próxima leitura repopula o cache a partir do DB.
	if cacheErr := r.Cache.Delete(ctxTimeout, fmt.Sprintf(courseCacheKey, course.ID)); cacheErr != nil {
		r.logger.Warn("Falha ao invalidar cache do curso após update.", map[string]interface{}{"course_id": course.ID, "error": cacheErr.Error()})
	}

	return nil
}
