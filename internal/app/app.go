package app

import (
	"intake/config"
	"intake/internal/database"
	"intake/internal/events"
	"intake/internal/handlers/middleware"
	"intake/internal/logger"
	"intake/internal/repositories"
	"intake/internal/services"
	"intake/internal/websockets"

	adminController "intake/internal/controllers/admin"
	questionnaireController "intake/internal/controllers/questionnaire"
	sessionController "intake/internal/controllers/session"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	// Services
	TransactionService       *services.TransactionService
	CacheInvalidationService *services.CacheInvalidationService

	// Repositories
	PatientRepo       repositories.PatientRepository
	SessionRepo       repositories.SessionRepository
	QuestionnaireRepo repositories.QuestionnaireRepository
	AdminRepo         repositories.AdminRepository

	// Controllers
	SessionController       *sessionController.SessionController
	QuestionnaireController *questionnaireController.QuestionnaireController
	AdminController         *adminController.AdminController
}

func New(config config.Config) (*App, error) {
	log := logger.New("app").Function("New")

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	// Initialize services
	transactionService := services.NewTransactionService(db)
	cacheInvalidationService := services.NewCacheInvalidationService(db, eventBus)

	// Initialize repositories
	patientRepo := repositories.NewPatientRepository(db)
	sessionRepo := repositories.NewSessionRepository(db, config)
	questionnaireRepo := repositories.NewQuestionnaireRepository(db)
	adminRepo := repositories.NewAdminRepository(db)

	// Initialize controllers with repositories and services
	middleware := middleware.New(config)
	sessionController := sessionController.New(
		patientRepo,
		sessionRepo,
		transactionService,
		cacheInvalidationService,
	)
	questionnaireController := questionnaireController.New(
		sessionRepo,
		questionnaireRepo,
		transactionService,
		cacheInvalidationService,
		config,
	)
	adminController := adminController.New(
		adminRepo,
		patientRepo,
		sessionRepo,
		questionnaireRepo,
		transactionService,
		cacheInvalidationService,
		config,
	)

	websocket, err := websockets.New(eventBus, config)
	if err != nil {
		_ = eventBus.Close()
		_ = db.Close()
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	app := &App{
		Database:                 db,
		Config:                   config,
		Middleware:               middleware,
		Websocket:                websocket,
		EventBus:                 eventBus,
		TransactionService:       transactionService,
		CacheInvalidationService: cacheInvalidationService,
		PatientRepo:              patientRepo,
		SessionRepo:              sessionRepo,
		QuestionnaireRepo:        questionnaireRepo,
		AdminRepo:                adminRepo,
		SessionController:        sessionController,
		QuestionnaireController:  questionnaireController,
		AdminController:          adminController,
	}

	if err := app.validate(); err != nil {
		_ = app.Close()
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.TransactionService,
		a.CacheInvalidationService,
		a.PatientRepo,
		a.SessionRepo,
		a.QuestionnaireRepo,
		a.AdminRepo,
		a.SessionController,
		a.QuestionnaireController,
		a.AdminController,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Websocket != nil {
		a.Websocket.Close()
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
