package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/OficinaContable-api/internal/application/auth"
	"github.com/jhoicas/OficinaContable-api/internal/application/usecase"
	"github.com/jhoicas/OficinaContable-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	CompanyUC      *usecase.CompanyUseCase
	EmployeeUC     *usecase.EmployeeUseCase
	Registry       moduleRegistry
	Modules        *usecase.ModuleService
	ClientUC       *usecase.ClientUseCase
	OfferUC        *usecase.OfferUseCase
	TimeEntryUC    *usecase.TimeEntryUseCase
	TaskUC         *usecase.TaskUseCase
	EmailUC        *usecase.EmailUseCase
	AIUC           *usecase.AIUseCase
	NotificationUC *usecase.NotificationUseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	moduleHandler := NewModuleHandler(deps.Registry, deps.Modules)
	protected.Get("/modules", moduleHandler.ListActive)

	// Administración de plataforma
	admin := protected.Group("/admin", RequireRole(entity.RoleAdmin))
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	admin.Get("/companies", companyHandler.List)
	admin.Post("/companies", companyHandler.Create)
	admin.Get("/companies/:id<guid>", companyHandler.GetByID)
	admin.Put("/companies/:id<guid>", companyHandler.Update)
	admin.Delete("/companies/:id<guid>", companyHandler.Deactivate)
	admin.Get("/companies/:id<guid>/modules", moduleHandler.CompanyModules)
	admin.Post("/companies/:id<guid>/modules/:slug", moduleHandler.Grant)
	admin.Delete("/companies/:id<guid>/modules/:slug", moduleHandler.Revoke)
	admin.Get("/modules", moduleHandler.ListAll)
	admin.Post("/modules/sync", moduleHandler.Sync)

	// Dueño de empresa
	owner := protected.Group("/company", RequireRole(entity.RoleCompanyOwner))
	employeeHandler := NewEmployeeHandler(deps.EmployeeUC)
	owner.Get("/modules", moduleHandler.OwnModules)
	owner.Get("/employees", employeeHandler.List)
	owner.Post("/employees", employeeHandler.Create)
	owner.Get("/employees/:id<guid>", employeeHandler.Get)
	owner.Put("/employees/:id<guid>", employeeHandler.Update)
	owner.Delete("/employees/:id<guid>", employeeHandler.Deactivate)
	owner.Get("/employees/:id<guid>/permissions", moduleHandler.EmployeePermissions)
	owner.Put("/employees/:id<guid>/permissions/:slug", moduleHandler.SetEmployeePermissions)
	owner.Delete("/employees/:id<guid>/permissions/:slug", moduleHandler.DeleteEmployeePermissions)

	// Módulos funcionales: cada ruta exige la acción correspondiente sobre el módulo.
	perm := func(slug string) (read, write, del fiber.Handler) {
		return RequireModule(deps.Modules, slug, entity.ActionRead),
			RequireModule(deps.Modules, slug, entity.ActionWrite),
			RequireModule(deps.Modules, slug, entity.ActionDelete)
	}

	// Clients (fields e icons antes de /:id)
	clientHandler := NewClientHandler(deps.ClientUC)
	r, w, d := perm(entity.ModuleClients)
	clients := protected.Group("/clients")
	clients.Get("/fields", r, clientHandler.ListFields)
	clients.Post("/fields", w, clientHandler.CreateField)
	clients.Put("/fields/:id<guid>", w, clientHandler.UpdateField)
	clients.Delete("/fields/:id<guid>", d, clientHandler.DeleteField)
	clients.Get("/icons", r, clientHandler.ListIcons)
	clients.Post("/icons", w, clientHandler.UploadIcon)
	clients.Delete("/icons/:id<guid>", d, clientHandler.DeleteIcon)
	clients.Get("/", r, clientHandler.List)
	clients.Post("/", w, clientHandler.Create)
	clients.Get("/:id<guid>", r, clientHandler.Get)
	clients.Put("/:id<guid>", w, clientHandler.Update)
	clients.Delete("/:id<guid>", d, clientHandler.Delete)

	// Leads y ofertas
	offerHandler := NewOfferHandler(deps.OfferUC)
	r, w, d = perm(entity.ModuleOffers)
	leads := protected.Group("/leads")
	leads.Get("/", r, offerHandler.ListLeads)
	leads.Post("/", w, offerHandler.CreateLead)
	leads.Get("/:id<guid>", r, offerHandler.GetLead)
	leads.Put("/:id<guid>", w, offerHandler.UpdateLead)
	leads.Delete("/:id<guid>", d, offerHandler.DeleteLead)
	leads.Post("/:id<guid>/convert", w, offerHandler.ConvertLead)
	offers := protected.Group("/offers")
	offers.Get("/", r, offerHandler.ListOffers)
	offers.Post("/", w, offerHandler.CreateOffer)
	offers.Get("/:id<guid>", r, offerHandler.GetOffer)
	offers.Put("/:id<guid>", w, offerHandler.UpdateOffer)
	offers.Patch("/:id<guid>/status", w, offerHandler.ChangeStatus)
	offers.Delete("/:id<guid>", d, offerHandler.DeleteOffer)
	offers.Get("/:id<guid>/pdf", r, offerHandler.PDF)

	// Control de tiempo
	timeHandler := NewTimeEntryHandler(deps.TimeEntryUC)
	r, w, d = perm(entity.ModuleTimeTracking)
	times := protected.Group("/time-entries")
	times.Post("/start", w, timeHandler.Start)
	times.Post("/stop", w, timeHandler.Stop)
	times.Get("/active", r, timeHandler.Active)
	times.Get("/summary", r, timeHandler.Summary)
	times.Get("/", r, timeHandler.List)
	times.Post("/", w, timeHandler.Create)
	times.Put("/:id<guid>", w, timeHandler.Update)
	times.Delete("/:id<guid>", d, timeHandler.Delete)

	// Tareas
	taskHandler := NewTaskHandler(deps.TaskUC)
	r, w, d = perm(entity.ModuleTasks)
	tasks := protected.Group("/tasks")
	tasks.Get("/", r, taskHandler.List)
	tasks.Post("/", w, taskHandler.Create)
	tasks.Get("/:id<guid>", r, taskHandler.Get)
	tasks.Put("/:id<guid>", w, taskHandler.Update)
	tasks.Patch("/:id<guid>/status", w, taskHandler.SetStatus)
	tasks.Delete("/:id<guid>", d, taskHandler.Delete)

	// Cliente de correo
	emailHandler := NewEmailHandler(deps.EmailUC)
	r, w, d = perm(entity.ModuleEmailClient)
	email := protected.Group("/email")
	email.Get("/config", r, emailHandler.GetConfig)
	email.Put("/config", w, emailHandler.SaveConfig)
	email.Delete("/config", d, emailHandler.DeleteConfig)
	email.Post("/send", w, emailHandler.Send)
	email.Get("/inbox", r, emailHandler.Inbox)
	email.Post("/test", r, emailHandler.Test)

	// Agente IA (la configuración solo la escribe el dueño)
	aiHandler := NewAIHandler(deps.AIUC)
	r, w, d = perm(entity.ModuleAIAgent)
	ai := protected.Group("/ai-agent")
	ai.Get("/config", r, aiHandler.GetConfig)
	ai.Put("/config", RequireRole(entity.RoleCompanyOwner, entity.RoleAdmin), w, aiHandler.SaveConfig)
	ai.Get("/conversations", r, aiHandler.ListConversations)
	ai.Post("/conversations", w, aiHandler.CreateConversation)
	ai.Get("/conversations/:id<guid>", r, aiHandler.GetConversation)
	ai.Delete("/conversations/:id<guid>", d, aiHandler.DeleteConversation)
	ai.Post("/conversations/:id<guid>/messages", w, aiHandler.SendMessage)

	// Notificaciones (siempre disponibles para el usuario autenticado)
	notificationHandler := NewNotificationHandler(deps.NotificationUC)
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.List)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Patch("/read-all", notificationHandler.MarkAllRead)
	notifications.Patch("/:id<guid>/read", notificationHandler.MarkRead)
	notifications.Delete("/:id<guid>", notificationHandler.Delete)
}
