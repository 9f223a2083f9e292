// Package twilio implements the reminder telephony gateway on the Twilio
// voice API.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	twiliosdk "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/phrazzld/duecall/internal/config"
	"github.com/phrazzld/duecall/internal/platform/logger"
	"github.com/phrazzld/duecall/internal/redact"
)

// DefaultTwiML is spoken when no callback URL is configured.
const DefaultTwiML = `<Response><Say>You have an overdue task. Please check your task list.</Say></Response>`

// ErrMisconfigured is returned by NewGateway when credentials or the sender
// number are missing.
var ErrMisconfigured = errors.New("telephony gateway misconfigured")

// callCreator is the subset of the Twilio API service used by the gateway.
type callCreator interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
}

// Gateway places reminder calls through the Twilio voice API.
type Gateway struct {
	calls       callCreator
	from        string
	callbackURL string
	logger      *slog.Logger
}

// NewGateway builds a gateway from telephony configuration. The configured
// timeout is applied to the underlying REST client.
func NewGateway(cfg config.TelephonyConfig, log *slog.Logger) (*Gateway, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("%w: account sid and auth token are required", ErrMisconfigured)
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("%w: from number is required", ErrMisconfigured)
	}

	client := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return newGateway(client.Api, cfg.FromNumber, cfg.CallbackURL, log), nil
}

func newGateway(calls callCreator, from, callbackURL string, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}

	return &Gateway{
		calls:       calls,
		from:        from,
		callbackURL: callbackURL,
		logger:      log.With(slog.String("component", "twilio_gateway")),
	}
}

func (g *Gateway) params(phoneNumber string) *openapi.CreateCallParams {
	params := &openapi.CreateCallParams{}
	params.SetTo(phoneNumber)
	params.SetFrom(g.from)
	if g.callbackURL != "" {
		params.SetUrl(g.callbackURL)
		params.SetMethod("GET")
	} else {
		params.SetTwiml(DefaultTwiML)
	}
	return params
}

// PlaceCall starts an outbound call to phoneNumber. Every failure, including
// a cancelled context, is returned as an error.
func (g *Gateway) PlaceCall(ctx context.Context, phoneNumber string) error {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("call not placed: %w", err)
	}

	start := time.Now()
	resp, err := g.calls.CreateCall(g.params(phoneNumber))
	if err != nil {
		attrs := []any{
			slog.String("to", redact.Phone(phoneNumber)),
			slog.String("error", redact.Error(err)),
			slog.Duration("duration", time.Since(start)),
		}
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			attrs = append(attrs, slog.Int("twilio_code", restErr.Code), slog.Int("http_status", restErr.Status))
		}
		log.Debug("twilio call creation failed", attrs...)
		return fmt.Errorf("create call: %w", err)
	}

	attrs := []any{
		slog.String("to", redact.Phone(phoneNumber)),
		slog.Duration("duration", time.Since(start)),
	}
	if resp != nil && resp.Sid != nil {
		attrs = append(attrs, slog.String("call_sid", *resp.Sid))
	}
	log.Debug("twilio call created", attrs...)

	return nil
}
