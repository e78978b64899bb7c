// Package httpapi wires the HTTP surface: the Telegram webhook endpoint plus
// the operational endpoints (health, metrics). All route registration and
// dependency assembly happens here so main stays thin.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/doloni/support-bot/internal/bot"
	"github.com/doloni/support-bot/internal/config"
	"github.com/doloni/support-bot/internal/content"
	"github.com/doloni/support-bot/internal/domain"
	"github.com/doloni/support-bot/internal/http/middleware"
	"github.com/doloni/support-bot/internal/repo"
	"github.com/doloni/support-bot/internal/services"
	"github.com/doloni/support-bot/internal/session"
	"github.com/doloni/support-bot/internal/telegram"
)

// maxUpdateBytes bounds webhook request bodies. Telegram text updates are a
// few KB at most.
const maxUpdateBytes = 1 << 20

// Repository shims adapt the package-level repo functions to the service
// interfaces.

type clientShim struct{}

func (clientShim) UpsertClient(ctx context.Context, db *gorm.DB, telegramID int64, phone, surname, name, lang string) error {
	return repo.UpsertClient(ctx, db, telegramID, phone, surname, name, lang)
}

func (clientShim) GetClient(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.Client, error) {
	return repo.GetClient(ctx, db, telegramID)
}

type ticketShim struct{}

func (ticketShim) CreateTicket(ctx context.Context, db *gorm.DB, userID int64, service string) (*domain.Ticket, error) {
	return repo.CreateTicket(ctx, db, userID, service)
}

func (ticketShim) GetTicket(ctx context.Context, db *gorm.DB, id string) (*domain.Ticket, error) {
	return repo.GetTicket(ctx, db, id)
}

func (ticketShim) OpenTicketForUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.Ticket, error) {
	return repo.OpenTicketForUser(ctx, db, userID)
}

func (ticketShim) ClaimTicket(ctx context.Context, db *gorm.DB, id string, operatorID int64) (*domain.Ticket, error) {
	return repo.ClaimTicket(ctx, db, id, operatorID)
}

func (ticketShim) CloseTicket(ctx context.Context, db *gorm.DB, id string) error {
	return repo.CloseTicket(ctx, db, id)
}

func (ticketShim) TouchTicket(ctx context.Context, db *gorm.DB, id string) error {
	return repo.TouchTicket(ctx, db, id)
}

func (ticketShim) CountTicketsByStatus(ctx context.Context, db *gorm.DB, status domain.TicketStatus) (int64, error) {
	return repo.CountTicketsByStatus(ctx, db, status)
}

func (ticketShim) ListTicketsByStatusPage(ctx context.Context, db *gorm.DB, status domain.TicketStatus, offset, limit int) ([]domain.Ticket, error) {
	return repo.ListTicketsByStatusPage(ctx, db, status, offset, limit)
}

type transcriptShim struct{}

func (transcriptShim) AppendTranscript(ctx context.Context, db *gorm.DB, ticketID string, role domain.TranscriptRole, text string) (*domain.TranscriptEntry, error) {
	return repo.AppendTranscript(ctx, db, ticketID, role, text)
}

// NewDispatcher assembles the event dispatcher with real services over the
// given database and transport.
func NewDispatcher(db *gorm.DB, transport bot.Transport, cfg config.Config) *bot.Dispatcher {
	sessions := session.NewStore()
	return &bot.Dispatcher{
		Transport: transport,
		Sessions:  sessions,
		Reg:       services.NewRegistrationService(db, clientShim{}, sessions),
		Tickets:   services.NewTicketService(db, ticketShim{}, transcriptShim{}),
		WhatsApp: content.WhatsAppEndpoints{
			Primary:   cfg.WhatsAppPrimary,
			Secondary: cfg.WhatsAppSecondary,
		},
		Operators:        cfg.Operators(),
		OperatorsGroupID: cfg.OperatorsGroupID,
		Log:              log.With().Str("component", "dispatcher").Logger(),
	}
}

// RegisterRoutes sets up middleware and routes on the engine and returns the
// dispatcher so callers can hold a reference if needed.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, transport bot.Transport, cfg config.Config) *bot.Dispatcher {
	d := NewDispatcher(db, transport, cfg)

	if cfg.OTEL.Enabled {
		r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())

	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	r.Use(limiter.Handler(middleware.KeyByIP))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST(cfg.WebhookPath,
		middleware.WebhookSecret(cfg.WebhookSecret),
		webhookHandler(db, d),
	)

	return d
}

// webhookHandler ingests one Telegram update per request. It always answers
// 200 once the secret check has passed: Telegram retries non-2xx deliveries,
// and a poisoned update must not wedge the queue.
func webhookHandler(db *gorm.DB, d *bot.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := middleware.LoggerFrom(c)

		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUpdateBytes))
		if err != nil {
			log.Warn().Err(err).Msg("webhook body read failed")
			c.String(http.StatusOK, "ok")
			return
		}

		var u telegram.Update
		if err := json.Unmarshal(raw, &u); err != nil {
			log.Warn().Err(err).Msg("webhook payload undecodable")
			bot.RecordDroppedUpdate()
			c.String(http.StatusOK, "ok")
			return
		}

		ctx := c.Request.Context()

		// Telegram redelivers updates on timeouts; the dedup table makes the
		// endpoint idempotent per update_id.
		if u.UpdateID != 0 {
			if err := repo.MarkUpdateProcessed(ctx, db, u.UpdateID); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					log.Debug().Int64("update_id", u.UpdateID).Msg("duplicate update skipped")
					c.String(http.StatusOK, "ok")
					return
				}
				// Dedup bookkeeping failure is not worth dropping the update.
				log.Warn().Err(err).Int64("update_id", u.UpdateID).Msg("update dedup write failed")
			}
		}

		ev, ok := telegram.DecodeUpdate(u)
		if !ok {
			bot.RecordDroppedUpdate()
			c.String(http.StatusOK, "ok")
			return
		}

		if err := d.Handle(ctx, ev); err != nil {
			log.Error().Err(err).Int64("update_id", u.UpdateID).Msg("update handling failed")
		}
		c.String(http.StatusOK, "ok")
	}
}
