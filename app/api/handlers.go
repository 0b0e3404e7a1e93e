package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sofiabot/app/service/ledger"
	"sofiabot/app/service/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
)

// chatRequest also accepts the field names of the first public version.
type chatRequest struct {
	Message  string `json:"message"`
	Context  string `json:"context"`
	Mensagem string `json:"mensagem"`
	Contexto string `json:"contexto"`
}

type chatInput struct {
	Message string `validate:"notblank"`
	Context string
}

func (r chatRequest) input() chatInput {
	input := chatInput{Message: r.Mensagem, Context: r.Contexto}
	if strings.TrimSpace(r.Message) != "" {
		input.Message = r.Message
	}
	if r.Context != "" {
		input.Context = r.Context
	}
	return input
}

type chatResponse struct {
	Reply          string       `json:"reply"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Tag            sales.Tag    `json:"tag"`
	Stats          ledger.State `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
	Reply string `json:"reply"`
}

type healthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Stats     ledger.State `json:"stats"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return oops.In("api").Wrapf(err, "failed to parse chat request")
	}

	input := req.input()
	if err := s.validate.Struct(input); err != nil {
		return emptyMessage(c)
	}

	outcome, err := s.salesSvc.Handle(c.UserContext(), input.Message, input.Context)
	if err != nil {
		if errors.Is(err, sales.ErrValidation) {
			return emptyMessage(c)
		}

		return err
	}

	return c.JSON(chatResponse{
		Reply:          outcome.Reply,
		ElapsedSeconds: outcome.Elapsed,
		Tag:            outcome.Tag,
		Stats:          outcome.Stats,
	})
}

func emptyMessage(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Error: "empty message",
		Reply: sales.GreetingReply,
	})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.ledger.Snapshot())
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(healthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Stats:     s.ledger.Snapshot(),
	})
}

func (s *Server) handleHome(c *fiber.Ctx) error {
	stats := s.ledger.Snapshot()

	c.Type("html", "utf-8")

	return c.SendString(fmt.Sprintf(`<h1>🧠 Sofia API</h1>
<p>Status: ✅ Online</p>
<p>Conversas: %d</p>
<p>Vendas: %d</p>
<p>Revenue: R$ %s</p>
<p>Tempo médio: %.2fs</p>

<h3>Endpoints:</h3>
<ul>
	<li>POST /chat - Conversar com Sofia</li>
	<li>GET /stats - Estatísticas</li>
	<li>GET /health - Health check</li>
</ul>
`, stats.ConversationCount, stats.SaleCount, stats.RevenueTotal.StringFixed(2), stats.AvgLatencySeconds))
}
