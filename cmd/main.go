package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"github.com/Rafargb/nomadsapiens/config"
	"github.com/Rafargb/nomadsapiens/internal/pkg/cache"
	"github.com/Rafargb/nomadsapiens/internal/pkg/database"
	"github.com/Rafargb/nomadsapiens/internal/pkg/logger"
	"github.com/Rafargb/nomadsapiens/internal/pkg/payments"
	"github.com/Rafargb/nomadsapiens/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"github.com/Rafargb/nomadsapiens/internal/api/checkout"
	"github.com/Rafargb/nomadsapiens/internal/api/course"
	"github.com/Rafargb/nomadsapiens/internal/api/router"
	"github.com/Rafargb/nomadsapiens/internal/api/user"
	"github.com/Rafargb/nomadsapiens/internal/repository/courserepo"
	"github.com/Rafargb/nomadsapiens/internal/repository/enrollmentrepo"
	"github.com/Rafargb/nomadsapiens/internal/repository/lessonrepo"
	"github.com/Rafargb/nomadsapiens/internal/repository/userrepo"
	"github.com/Rafargb/nomadsapiens/internal/service/accessservice"
	"github.com/Rafargb/nomadsapiens/internal/service/checkoutservice"
	"github.com/Rafargb/nomadsapiens/internal/service/courseservice"
	"github.com/Rafargb/nomadsapiens/internal/service/lessonservice"
	"github.com/Rafargb/nomadsapiens/internal/service/userservice"
)

// @title Nomad Sapiens API
// @version 1.0
// @description Backend do marketplace de cursos: catálogo, checkout e liberação de acesso por matrícula.
// @BasePath /
func main() {
	// 1. Configuração e Inicialização
	stdlog.Println("⚡ Inicializando backend Nomad Sapiens...")

	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Sem .env não é fatal: as variáveis essenciais podem estar no
		// ambiente do sistema (ex: Docker).
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Processador de Pagamentos (Stripe)
	stripeClient := payments.NewStripeClient(cfg.StripeSecretKey, cfg.StripeAPIBaseURL, cfg.PaymentTimeout)
	log.Debug("Cliente Stripe inicializado.", nil)

	// D. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	courseRepo := courserepo.NewCourseRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
	lessonRepo := lessonrepo.NewLessonRepository(db, cfg.DBTimeout, log)
	enrollmentRepo := enrollmentrepo.NewEnrollmentRepository(db, cfg.DBTimeout, log)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	courseSvc := courseservice.NewService(courseRepo, enrollmentRepo, log)
	lessonSvc := lessonservice.NewService(lessonRepo, courseRepo, log)
	accessSvc := accessservice.NewService(enrollmentRepo, cfg.OperatorEmails, cfg.LessonPreviewEnabled, log)
	checkoutSvc := checkoutservice.NewService(stripeClient, enrollmentRepo, courseRepo, log)
	userSvc := userservice.NewService(userRepo, tokenSvc, log)
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	courseHandler := course.NewHandler(courseSvc, lessonSvc, accessSvc, log)
	checkoutHandler := checkout.NewHandler(checkoutSvc, log)
	userHandler := user.NewHandler(userSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(courseHandler, checkoutHandler, userHandler, tokenSvc, cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor Nomad Sapiens ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// Captura de sinal para desligamento limpo
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
