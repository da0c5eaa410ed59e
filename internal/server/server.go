package server

import (
	"club-marketplace/internal/handler"
	mw "club-marketplace/internal/middleware"
	"club-marketplace/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo          *echo.Echo
	orderHandler  *handler.OrderHandler
	clubHandler   *handler.ClubHandler
	payoutHandler *handler.PayoutHandler
}

func NewServer(
	orderService service.OrderService,
	clubService service.ClubService,
	rewardService service.RewardService,
	payoutService service.PayoutService,
) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mw.ActorMiddleware())

	s := &Server{
		echo:          e,
		orderHandler:  handler.NewOrderHandler(orderService),
		clubHandler:   handler.NewClubHandler(clubService, rewardService),
		payoutHandler: handler.NewPayoutHandler(payoutService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- orders --------
	orders := api.Group("/orders")
	orders.POST("", s.orderHandler.Create)
	orders.GET("/:id", s.orderHandler.Get)
	orders.POST("/:id/cancel", s.orderHandler.Cancel)
	orders.POST("/:id/confirm", s.orderHandler.Confirm)
	orders.POST("/:id/process", s.orderHandler.StartProcessing)
	orders.POST("/:id/deliver", s.orderHandler.ConfirmDelivery)
	orders.POST("/:id/verify-payment", s.orderHandler.VerifyPayment)

	api.POST("/order-items/:id/ship", s.orderHandler.ShipItem)

	// -------- clubs --------
	clubs := api.Group("/clubs")
	clubs.GET("/:id/tier", s.clubHandler.GetTierInfo)
	clubs.GET("/:id/rewards", s.clubHandler.GetLedger)
	clubs.POST("/:id/reviews", s.clubHandler.RecordReview)
	clubs.POST("/:id/points/adjust", s.clubHandler.AdjustPoints)

	// -------- payouts --------
	clubs.GET("/:id/payouts", s.payoutHandler.List)
	clubs.GET("/:id/payouts/pending", s.payoutHandler.Project)
	clubs.POST("/:id/payouts", s.payoutHandler.Process)

	api.POST("/payouts/settle", s.payoutHandler.BatchSettle)
	api.POST("/payouts/:id/confirm", s.payoutHandler.Confirm)
	api.POST("/payouts/:id/fail", s.payoutHandler.Fail)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
