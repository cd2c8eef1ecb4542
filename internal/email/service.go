package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
	"github.com/khiels/storefront-backend/pkg/mail"
	"github.com/shopspring/decimal"
)

const confirmationTemplate = "checkout_success.html"

// ConfirmationInput carries the data substituted into the order
// confirmation template.
type ConfirmationInput struct {
	ToName     string
	ToEmail    string
	OrderCode  string
	TotalCents int64
}

// Service composes and dispatches transactional storefront email.
type Service interface {
	SendOrderConfirmation(ctx context.Context, input ConfirmationInput) error
}

type service struct {
	sender      mail.Sender
	templateDir string
	logger      *logger.Logger
}

// NewService builds the email service reading templates from templateDir.
func NewService(sender mail.Sender, templateDir string, logg *logger.Logger) (Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if templateDir == "" {
		return nil, fmt.Errorf("template directory required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{sender: sender, templateDir: templateDir, logger: logg}, nil
}

func (s *service) SendOrderConfirmation(ctx context.Context, input ConfirmationInput) error {
	body, err := s.render(confirmationTemplate, map[string]string{
		"{{UserName}}":    input.ToName,
		"{{OrderCode}}":   input.OrderCode,
		"{{TotalAmount}}": FormatAmount(input.TotalCents),
	})
	if err != nil {
		return err
	}

	return s.sender.Send(ctx, mail.Message{
		ToName:  input.ToName,
		ToEmail: input.ToEmail,
		Subject: "Xác nhận đơn hàng " + input.OrderCode,
		HTML:    body,
	})
}

func (s *service) render(name string, tokens map[string]string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.templateDir, name))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeEmailDelivery, err, "reading email template")
	}

	pairs := make([]string, 0, len(tokens)*2)
	for token, value := range tokens {
		pairs = append(pairs, token, value)
	}
	return strings.NewReplacer(pairs...).Replace(string(raw)), nil
}

// FormatAmount renders minor units as a display amount with two decimal
// places, e.g. 125000 -> "1250.00".
func FormatAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
