package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/Rafargb/nomadsapiens/docs" // Documentação gerada pelo swag
	"github.com/Rafargb/nomadsapiens/internal/api/checkout"
	"github.com/Rafargb/nomadsapiens/internal/api/course"
	"github.com/Rafargb/nomadsapiens/internal/api/user"
	"github.com/Rafargb/nomadsapiens/internal/domain"
	"github.com/Rafargb/nomadsapiens/internal/pkg/cache"
	"github.com/Rafargb/nomadsapiens/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	courseHandler *course.Handler,
	checkoutHandler *checkout.Handler,
	userHandler *user.Handler,
	tokenSvc middleware.TokenService,
	cacheClient cache.Client,
	rateLimit int,
	ratePeriod time.Duration,
) http.Handler {

	// ServeMux padrão do net/http, com roteamento por método e wildcard.
	mux := http.NewServeMux()

	// Middlewares de autenticação:
	// auth       = token obrigatório;
	// optional   = visitante anônimo permitido (catálogo, player, verify);
	// admin      = auth + role admin (estúdio de conteúdo).
	auth := middleware.NewAuthMiddleware(tokenSvc)
	optional := middleware.NewOptionalAuthMiddleware(tokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Health Check ---
	mux.HandleFunc("/ping", PingHandler)

	// --- 2. Identidade ---
	mux.HandleFunc("POST /v1/users/register", userHandler.RegisterHandler)
	mux.HandleFunc("POST /v1/users/login", userHandler.LoginHandler)

	// --- 3. Catálogo e Player ---
	mux.HandleFunc("GET /v1/courses", optional(courseHandler.ListCoursesHandler))
	mux.HandleFunc("GET /v1/courses/{id}", optional(courseHandler.GetCourseByIDHandler))
	mux.HandleFunc("GET /v1/courses/{id}/access", optional(courseHandler.CourseAccessHandler))
	mux.HandleFunc("GET /v1/courses/{id}/lessons", optional(courseHandler.ListLessonsHandler))
	mux.HandleFunc("GET /v1/courses/{id}/lessons/{lessonID}/play", optional(courseHandler.PlayLessonHandler))
	mux.HandleFunc("GET /v1/me/courses", auth(courseHandler.MyCoursesHandler))

	// --- 4. Estúdio de Conteúdo (admin) ---
	mux.HandleFunc("POST /v1/courses", auth(adminOnly(courseHandler.CreateCourseHandler)))
	mux.HandleFunc("PUT /v1/courses/{id}", auth(adminOnly(courseHandler.UpdateCourseHandler)))
	mux.HandleFunc("POST /v1/courses/{id}/lessons", auth(adminOnly(courseHandler.CreateLessonHandler)))
	mux.HandleFunc("DELETE /v1/courses/{id}/lessons/{lessonID}", auth(adminOnly(courseHandler.DeleteLessonHandler)))

	// --- 5. Checkout ---
	// A verificação tem auth opcional: a metadata da cobrança é autoritativa
	// e o fluxo de convidado pode confirmar antes do login.
	mux.HandleFunc("POST /v1/checkout", auth(checkoutHandler.CreateChargeHandler))
	mux.HandleFunc("POST /v1/checkout/verify", optional(checkoutHandler.VerifyHandler))

	// --- 6. Documentação ---
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- 7. Middlewares Globais ---
	return middleware.RateLimiter(cacheClient, rateLimit, ratePeriod)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
