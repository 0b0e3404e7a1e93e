package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"sofiabot/app/config"
	"sofiabot/app/service/ledger"
	"sofiabot/app/service/sales"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/samber/do"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg      *config.Config
	salesSvc *sales.Service
	ledger   *ledger.Ledger

	app      *fiber.App
	validate *validator.Validate
}

func New(di *do.Injector) (*Server, error) {
	return NewServer(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*sales.Service](di),
		do.MustInvoke[*ledger.Ledger](di),
	), nil
}

func NewServer(cfg *config.Config, salesSvc *sales.Service, ledgerSvc *ledger.Ledger) *Server {
	s := &Server{
		cfg:      cfg,
		salesSvc: salesSvc,
		ledger:   ledgerSvc,
		validate: validator.New(),
	}

	// RegisterValidation only fails on an empty tag or a nil func.
	_ = s.validate.RegisterValidation("notblank", validators.NotBlank)

	s.app = fiber.New(fiber.Config{
		AppName:               "sofia",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	s.app.Use(cors.New())

	s.app.Get("/", s.handleHome)
	s.app.Post("/chat", s.handleChat)
	s.app.Get("/stats", s.handleStats)
	s.app.Get("/health", s.handleHealth)

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	slog.Info("Listening", "addr", addr)

	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is cancelled and returns once in-flight
// requests have finished or the shutdown timeout has passed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Error("Failed to shut down http server", "error", err)
		}
	}()

	if err := s.app.Listener(ln); err != nil {
		return fmt.Errorf("failed to serve on %s: %w", ln.Addr(), err)
	}

	<-shutdownDone

	return nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err,
		)
	}

	return c.Status(code).JSON(errorResponse{
		Error: err.Error(),
		Reply: sales.ApologyReply,
	})
}
