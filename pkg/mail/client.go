package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/khiels/storefront-backend/pkg/config"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errFromRequired   = errors.New("sendgrid default from address is required")
	errLoggerRequired = errors.New("mail logger is required")
)

// Message is a single outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

// Sender delivers email. Satisfied by Client; stubbed in tests.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client sends transactional email through Sendgrid.
type Client struct {
	sg     *sendgrid.Client
	from   *sgmail.Email
	logger *logger.Logger
}

func NewClient(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errFromRequired
	}

	return &Client{
		sg:     sendgrid.NewSendClient(cfg.APIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.DefaultFrom),
		logger: logg,
	}, nil
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}

	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmail(c.from, msg.Subject, to, "", msg.HTML)

	resp, err := c.sg.SendWithContext(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeEmailDelivery, err, "sending email")
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn(ctx, "sendgrid rejected message")
		return pkgerrors.New(pkgerrors.CodeEmailDelivery, "email provider rejected message")
	}

	return nil
}
