package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/dashbot/internal/console/handler"
	"github.com/xela07ax/dashbot/internal/infra"
	"github.com/xela07ax/dashbot/internal/infra/auth"
	"github.com/xela07ax/dashbot/internal/ws"
	"go.uber.org/zap"
)

type Server struct {
	router  *chi.Mux
	logger  *zap.Logger
	cfg     *infra.Config
	metrics *infra.Metrics

	// Валидаторы двух периметров: bearer плагина и JWT браузера
	pluginValidator  auth.PluginTokenVerifier
	sessionValidator auth.TokenValidator

	// Обработчики бизнес-доменов
	authHandler    *handler.AuthHandler      // /auth/token
	pluginHandler  *handler.PluginHandler    // /api/plugin/* (пуши агента)
	dashHandler    *handler.DashboardHandler // /api/status, /api/events, /api/subagents
	chatHandler    *handler.ChatHandler      // /api/chat/*
	commandHandler *handler.CommandHandler   // /api/cron/*, /api/sessions/*
	hub            *ws.Hub                   // /ws
}

// NewServer инициализирует HTTP-слой дашборда со всеми зависимостями
func NewServer(
	cfg *infra.Config,
	logger *zap.Logger,
	metrics *infra.Metrics,
	pluginV auth.PluginTokenVerifier,
	sessionV auth.TokenValidator,
	authH *handler.AuthHandler,
	pluginH *handler.PluginHandler,
	dashH *handler.DashboardHandler,
	chatH *handler.ChatHandler,
	commandH *handler.CommandHandler,
	hub *ws.Hub,
) *Server {
	s := &Server{
		router:           chi.NewRouter(),
		logger:           logger.Named("dashbot-api"),
		cfg:              cfg,
		metrics:          metrics,
		pluginValidator:  pluginV,
		sessionValidator: sessionV,
		authHandler:      authH,
		pluginHandler:    pluginH,
		dashHandler:      dashH,
		chatHandler:      chatH,
		commandHandler:   commandH,
		hub:              hub,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(newMetricsMiddleware(s.metrics))

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Логин должен быть доступен без токена
		r.Post("/auth/token", s.authHandler.Login)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ПЕРИМЕТР ПЛАГИНА (общий bearer-токен, константное сравнение) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewPluginMiddleware(s.pluginValidator, s.logger))

		r.Route("/api/plugin", func(r chi.Router) {
			r.Post("/status", s.pluginHandler.PushStatus) // статус-снапшот
			r.Post("/events", s.pluginHandler.PushEvent)  // событие журнала
			r.Post("/sessions/{sessionKey}/messages", s.pluginHandler.PushMessage)
			r.Post("/cards/{cardID}/reply", s.pluginHandler.AttachCardReply)
		})
	})

	// --- 4. БРАУЗЕРНЫЙ ПЕРИМЕТР (JWT сессия) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewSessionMiddleware(s.sessionValidator, s.logger))

		// Виджеты дашборда
		r.Get("/api/status", s.dashHandler.GetStatus)
		r.Get("/api/events", s.dashHandler.GetEvents)
		r.Get("/api/subagents", s.dashHandler.GetSubagents)

		// Чат и карточки
		r.Route("/api/chat", func(r chi.Router) {
			r.Get("/sessions", s.chatHandler.ListSessions)
			r.Route("/sessions/{sessionKey}", func(r chi.Router) {
				r.Get("/messages", s.chatHandler.History)
				r.Post("/messages", s.chatHandler.SendMessage)
				r.Delete("/messages", s.chatHandler.Clear)
			})
			r.Post("/cards/{cardID}/respond", s.chatHandler.RespondCard)
		})

		// Команды плагину (cron, kill сессий)
		r.Route("/api/cron/{jobID}", func(r chi.Router) {
			r.Post("/run", s.commandHandler.RunCron)
			r.Post("/enable", s.commandHandler.EnableCron)
			r.Post("/disable", s.commandHandler.DisableCron)
		})
		r.Delete("/api/sessions/{sessionKey}", s.commandHandler.KillSession)

		// Real-time канал браузера
		r.Get("/ws", s.hub.ServeWS)
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
