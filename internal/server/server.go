package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/thefaces/checkout-service/internal/config"
	"github.com/thefaces/checkout-service/internal/handler"
	"github.com/thefaces/checkout-service/internal/middleware"
	"github.com/thefaces/checkout-service/internal/repository"
	"github.com/thefaces/checkout-service/internal/service"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	adminHandler    *handler.AdminHandler
	adminToken      string
}

func NewServer(
	cfg *config.Config,
	checkoutService service.CheckoutService,
	catalogService service.CatalogService,
	regRepo repository.RegistrationRepository,
) *Server {
	e := echo.New()

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		adminHandler:    handler.NewAdminHandler(catalogService, regRepo),
		adminToken:      cfg.Admin.APIToken,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- checkout pipeline --------
	api.POST("/checkout", s.checkoutHandler.Submit)
	api.GET("/checkout", s.checkoutHandler.HostedRedirect)
	api.GET("/thank-you", s.checkoutHandler.ThankYou)

	// -------- admin (catalog + registrations) --------
	admin := api.Group("/admin", middleware.AdminAuth(s.adminToken))
	admin.GET("/checkouts", s.adminHandler.ListCheckouts)
	admin.POST("/checkouts", s.adminHandler.CreateCheckout)
	admin.PUT("/checkouts/:id", s.adminHandler.UpdateCheckout)
	admin.DELETE("/checkouts/:id", s.adminHandler.DeactivateCheckout)
	admin.GET("/registrations", s.adminHandler.ListRegistrations)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
