package course

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Rafargb/nomadsapiens/internal/domain"
	apperror "github.com/Rafargb/nomadsapiens/internal/errors"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
	"github.com/Rafargb/nomadsapiens/internal/pkg/middleware"
)

// CourseService define o contrato que o Handler espera da camada de Serviço.
type CourseService interface {
	CreateCourse(ctx domain.Context, course domain.Course) (domain.Course, error)
	GetCourseByID(ctx domain.Context, id int64) (domain.Course, error)
	GetCourses(ctx domain.Context, page, limit int, category string) ([]domain.Course, error)
	UpdateCourse(ctx domain.Context, course domain.Course) error
	GetEnrolledCourses(ctx domain.Context, userID string) ([]domain.Course, error)
}

// LessonService define o contrato da camada de Serviço de aulas.
type LessonService interface {
	CreateLesson(ctx domain.Context, lesson domain.Lesson) (domain.Lesson, error)
	GetLessonByID(ctx domain.Context, id int64) (domain.Lesson, error)
	GetLessonsByCourse(ctx domain.Context, courseID int64) ([]domain.Lesson, error)
	DeleteLesson(ctx domain.Context, id int64) error
}

// AccessService é a decisão de acesso (ALLOW/DENY) consultada pelo player.
type AccessService interface {
	DecideCourse(ctx domain.Context, user domain.User, course domain.Course) domain.Decision
	DecideLesson(ctx domain.Context, user domain.User, course domain.Course, lesson domain.Lesson) domain.Decision
}

// Handler agrupa os handlers de catálogo, player e estúdio de conteúdo.
type Handler struct {
	Courses CourseService
	Lessons LessonService
	Access  AccessService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Services e o Logger.
func NewHandler(courses CourseService, lessons LessonService, access AccessService, log logger.Logger) *Handler {
	return &Handler{
		Courses: courses,
		Lessons: lessons,
		Access:  access,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// pathID extrai um ID numérico de um segmento de rota.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidationError(fmt.Sprintf("O parâmetro %q deve ser um inteiro positivo.", name))
	}
	return id, nil
}

// currentUser devolve a identidade anexada pelo middleware, ou o usuário
// zero (anônimo) quando a rota é de autenticação opcional.
func currentUser(r *http.Request) domain.User {
	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		return claims.User()
	}
	return domain.User{}
}

// --- Catálogo ---

// ListCoursesHandler lida com GET /v1/courses.
// @Summary Lista o catálogo de cursos
// @Tags courses
// @Param page query int false "Página"
// @Param limit query int false "Itens por página"
// @Param category query string false "Categoria de vitrine"
// @Success 200 {array} domain.Course
// @Failure 500 {object} domain.ErrorResponse
// @Router /v1/courses [get]
func (h *Handler) ListCoursesHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	category := r.URL.Query().Get("category")

	courses, err := h.Courses.GetCourses(r.Context(), page, limit, category)
	h.handleServiceResponse(w, r, courses, err, http.StatusOK)
}

// GetCourseByIDHandler lida com GET /v1/courses/{id}.
// @Summary Busca um curso por ID
// @Tags courses
// @Param id path int true "ID do curso"
// @Success 200 {object} domain.Course
// @Failure 404 {object} domain.ErrorResponse
// @Router /v1/courses/{id} [get]
func (h *Handler) GetCourseByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	course, err := h.Courses.GetCourseByID(r.Context(), id)
	h.handleServiceResponse(w, r, course, err, http.StatusOK)
}

// ListLessonsHandler lida com GET /v1/courses/{id}/lessons.
// Devolve a grade de aulas do curso (metadados apenas; a URL do vídeo de
// conteúdo travado só sai pelo endpoint de play, após a decisão de acesso).
func (h *Handler) ListLessonsHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	lessons, err := h.Lessons.GetLessonsByCourse(r.Context(), courseID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	// Oculta a URL de vídeo na listagem; o player pede via /play.
	type lessonSummary struct {
		ID       int64  `json:"id"`
		CourseID int64  `json:"course_id"`
		Title    string `json:"title"`
		IsLocked bool   `json:"is_locked"`
		Position int    `json:"position"`
	}
	summaries := make([]lessonSummary, 0, len(lessons))
	for _, l := range lessons {
		summaries = append(summaries, lessonSummary{
			ID: l.ID, CourseID: l.CourseID, Title: l.Title, IsLocked: l.IsLocked, Position: l.Position,
		})
	}

	h.handleServiceResponse(w, r, summaries, nil, http.StatusOK)
}

// --- Player (decisão de acesso) ---

// playResponse é a resposta do endpoint de reprodução.
type playResponse struct {
	Decision domain.Decision `json:"decision"`
	VideoURL string          `json:"video_url,omitempty"`
}

// PlayLessonHandler lida com GET /v1/courses/{id}/lessons/{lessonID}/play.
// Consulta a decisão de acesso para o usuário atual (possivelmente anônimo);
// ALLOW devolve a URL do vídeo, DENY devolve 401/403 sem URL.
// @Summary Pede a reprodução de uma aula
// @Tags player
// @Param id path int true "ID do curso"
// @Param lessonID path int true "ID da aula"
// @Success 200 {object} playResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /v1/courses/{id}/lessons/{lessonID}/play [get]
func (h *Handler) PlayLessonHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	courseID, err := pathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	lessonID, err := pathID(r, "lessonID")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	course, err := h.Courses.GetCourseByID(ctx, courseID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	lesson, err := h.Lessons.GetLessonByID(ctx, lessonID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	user := currentUser(r)
	decision := h.Access.DecideLesson(ctx, user, course, lesson)

	if !decision.Allowed() {
		// Anônimo recebe 401 (faça login); autenticado sem matrícula, 403 (compre).
		status := http.StatusForbidden
		category := "ACCESS_DENIED"
		message := "Este conteúdo exige matrícula no curso."
		if user.ID == "" {
			status = http.StatusUnauthorized
			category = "UNAUTHORIZED"
			message = "Faça login para assistir este conteúdo."
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
		return
	}

	h.handleServiceResponse(w, r, playResponse{Decision: decision, VideoURL: lesson.VideoURL}, nil, http.StatusOK)
}

// CourseAccessHandler lida com GET /v1/courses/{id}/access.
// Decisão em nível de curso, usada pela UI para montar a página de detalhe
// (botão "assistir" vs. "comprar") sem expor nenhuma URL de vídeo.
func (h *Handler) CourseAccessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	courseID, err := pathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	course, err := h.Courses.GetCourseByID(ctx, courseID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	decision := h.Access.DecideCourse(ctx, currentUser(r), course)
	h.handleServiceResponse(w, r, playResponse{Decision: decision}, nil, http.StatusOK)
}

// MyCoursesHandler lida com GET /v1/me/courses (requer autenticação).
func (h *Handler) MyCoursesHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}

	courses, err := h.Courses.GetEnrolledCourses(r.Context(), claims.UserID)
	h.handleServiceResponse(w, r, courses, err, http.StatusOK)
}

// --- Estúdio de Conteúdo (rotas admin) ---

// CreateCourseHandler lida com POST /v1/courses.
func (h *Handler) CreateCourseHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		h.Logger.Info("Criação de curso pelo estúdio de conteúdo.", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
	}

	var course domain.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Courses.CreateCourse(ctx, course)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// UpdateCourseHandler lida com PUT /v1/courses/{id}.
func (h *Handler) UpdateCourseHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var course domain.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	course.ID = id

	err = h.Courses.UpdateCourse(r.Context(), course)
	h.handleServiceResponse(w, r, map[string]interface{}{"updated": err == nil}, err, http.StatusOK)
}

// CreateLessonHandler lida com POST /v1/courses/{id}/lessons.
func (h *Handler) CreateLessonHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "id")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	var lesson domain.Lesson
	if err := json.NewDecoder(r.Body).Decode(&lesson); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}
	lesson.CourseID = courseID

	created, err := h.Lessons.CreateLesson(r.Context(), lesson)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// DeleteLessonHandler lida com DELETE /v1/courses/{id}/lessons/{lessonID}.
func (h *Handler) DeleteLessonHandler(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathID(r, "lessonID")
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}

	err = h.Lessons.DeleteLesson(r.Context(), lessonID)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
