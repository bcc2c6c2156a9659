package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/bilyar/storefront-api/internal/notify"
	"github.com/bilyar/storefront-api/internal/payments"
	"github.com/bilyar/storefront-api/internal/platform/config"
	"github.com/bilyar/storefront-api/internal/repositories"
	"github.com/bilyar/storefront-api/internal/services"
	"github.com/bilyar/storefront-api/internal/translate"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders    services.OrderService
	Payments  services.PaymentService
	Catalog   services.CatalogService
	Customers services.CustomerService
	Settings  services.SettingsService
	System    services.SystemService
}

// Container wires repositories, gateways, and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies around the supplied registry.
// Production wiring provides a Postgres or Firestore registry, while tests can
// supply in-memory implementations.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, logger *zap.Logger) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := buildServices(ctx, cfg, reg, logger)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, cfg config.Config, reg repositories.Registry, logger *zap.Logger) (Services, error) {
	var svc Services

	source, err := language.Parse(cfg.Translate.SourceLang)
	if err != nil {
		return Services{}, fmt.Errorf("parse translate source language %q: %w", cfg.Translate.SourceLang, err)
	}
	target, err := language.Parse(cfg.Translate.TargetLang)
	if err != nil {
		return Services{}, fmt.Errorf("parse translate target language %q: %w", cfg.Translate.TargetLang, err)
	}
	translator, err := translate.NewTranslator(translate.Config{
		BaseURL: cfg.Translate.BaseURL,
		Source:  source,
		Target:  target,
		Logger:  logger.Named("translate"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build translator: %w", err)
	}

	notifier := notify.NewWhatsAppNotifier(notify.WhatsAppConfig{
		AccessToken:   cfg.WhatsApp.AccessToken,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		Logger:        logger.Named("whatsapp"),
	})

	myfatoorah, err := payments.NewMyFatoorahGateway(payments.MyFatoorahConfig{
		BaseURL: cfg.Gateways.MyFatoorah.BaseURL,
		APIKey:  cfg.Gateways.MyFatoorah.APIKey,
		Timeout: cfg.Gateways.Timeout,
		Logger:  logger.Named("myfatoorah"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build myfatoorah gateway: %w", err)
	}

	deema, err := payments.NewDeemaGateway(payments.DeemaConfig{
		BaseURL:  cfg.Gateways.Deema.BaseURL,
		APIKey:   cfg.Gateways.Deema.APIKey,
		AuthMode: cfg.Gateways.Deema.AuthMode,
		Timeout:  cfg.Gateways.Timeout,
		Logger:   logger.Named("deema"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build deema gateway: %w", err)
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Registry:   reg,
		Translator: translator,
		Notifier:   notifier,
		Logger:     logger.Named("orders"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	paymentSvc, err := services.NewPaymentService(services.PaymentServiceDeps{
		Registry:      reg,
		MyFatoorah:    myfatoorah,
		Deema:         deema,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Logger:        logger.Named("payments"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build payment service: %w", err)
	}
	svc.Payments = paymentSvc

	catalogSvc, err := services.NewCatalogService(reg)
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	customerSvc, err := services.NewCustomerService(reg, logger.Named("customers"))
	if err != nil {
		return Services{}, fmt.Errorf("build customer service: %w", err)
	}
	svc.Customers = customerSvc

	settingsSvc, err := services.NewSettingsService(reg)
	if err != nil {
		return Services{}, fmt.Errorf("build settings service: %w", err)
	}
	svc.Settings = settingsSvc

	systemSvc, err := services.NewSystemService(reg.Health())
	if err != nil {
		return Services{}, fmt.Errorf("build system service: %w", err)
	}
	svc.System = systemSvc

	return svc, nil
}
