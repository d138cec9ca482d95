package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/service"
	apperrors "github.com/travelbuddy/server/pkg/errors"
	"github.com/travelbuddy/server/pkg/httpclient"
)

// Config holds SSLCommerz credentials and callback endpoints.
type Config struct {
	BaseURL     string
	StoreID     string
	StorePasswd string
	SuccessURL  string
	FailURL     string
	CancelURL   string
	IPNURL      string
}

// SSLCommerz is the hosted checkout client for the SSLCommerz sandbox and
// live gateways. All calls go through a circuit breaker so a gateway outage
// cannot pile up goroutines behind slow requests.
type SSLCommerz struct {
	cfg    Config
	http   *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// NewSSLCommerz creates an SSLCommerz gateway client.
func NewSSLCommerz(cfg Config, client *httpclient.Client, logger *slog.Logger) *SSLCommerz {
	cbCfg := httpclient.DefaultCircuitBreakerConfig("sslcommerz")
	return &SSLCommerz{
		cfg:    cfg,
		http:   httpclient.NewCircuitBreakerClient(client, cbCfg, logger),
		logger: logger,
	}
}

type sessionResponse struct {
	Status         string `json:"status"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

type validationResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"tran_id"`
	ValidationID  string `json:"val_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// CreateSession opens a hosted checkout session for the payment.
func (g *SSLCommerz) CreateSession(ctx context.Context, payment *domain.Payment, customer *domain.User) (*service.GatewaySession, error) {
	form := url.Values{}
	form.Set("store_id", g.cfg.StoreID)
	form.Set("store_passwd", g.cfg.StorePasswd)
	form.Set("total_amount", strconv.FormatInt(payment.Amount, 10))
	form.Set("currency", payment.Currency)
	form.Set("tran_id", payment.TransactionID)
	form.Set("success_url", g.cfg.SuccessURL)
	form.Set("fail_url", g.cfg.FailURL)
	form.Set("cancel_url", g.cfg.CancelURL)
	form.Set("ipn_url", g.cfg.IPNURL)
	form.Set("product_name", productName(payment))
	form.Set("product_category", "service")
	form.Set("product_profile", "non-physical-goods")
	form.Set("shipping_method", "NO")
	form.Set("cus_name", customer.FullName)
	form.Set("cus_email", customer.Email)
	form.Set("cus_add1", customer.CurrentLocation)
	form.Set("cus_country", "Bangladesh")
	form.Set("cus_phone", "N/A")

	resp, err := g.http.Post(ctx, g.cfg.BaseURL+"/gwprocess/v4/api.php",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("sslcommerz session request: %w", err)
	}
	defer resp.Body.Close()

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode sslcommerz session response: %w", err)
	}

	if session.Status != "SUCCESS" {
		g.logger.ErrorContext(ctx, "sslcommerz rejected session",
			slog.String("transaction_id", payment.TransactionID),
			slog.String("reason", session.FailedReason),
		)
		return nil, apperrors.PaymentFailed("payment gateway could not start a checkout session")
	}

	return &service.GatewaySession{
		SessionKey:  session.SessionKey,
		RedirectURL: session.GatewayPageURL,
	}, nil
}

// ValidatePayment re-verifies a transaction against the gateway's validator
// endpoint. The raw response body is returned for audit storage.
func (g *SSLCommerz) ValidatePayment(ctx context.Context, validationID string) (*service.GatewayValidation, error) {
	query := url.Values{}
	query.Set("val_id", validationID)
	query.Set("store_id", g.cfg.StoreID)
	query.Set("store_passwd", g.cfg.StorePasswd)
	query.Set("v", "1")
	query.Set("format", "json")

	resp, err := g.http.Get(ctx, g.cfg.BaseURL+"/validator/api/validationserverAPI.php?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("sslcommerz validation request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sslcommerz validation response: %w", err)
	}

	var validation validationResponse
	if err := json.Unmarshal(raw, &validation); err != nil {
		return nil, fmt.Errorf("decode sslcommerz validation response: %w", err)
	}

	return &service.GatewayValidation{
		TransactionID: validation.TransactionID,
		ValidationID:  validation.ValidationID,
		Status:        validation.Status,
		Amount:        validation.Amount,
		Raw:           raw,
	}, nil
}

func productName(payment *domain.Payment) string {
	switch payment.Purpose {
	case domain.PaymentPurposeSubscription:
		return "TravelBuddy " + strings.ToLower(payment.PlanType) + " subscription"
	case domain.PaymentPurposeVerifiedBadge:
		return "TravelBuddy verified badge"
	default:
		return "TravelBuddy purchase"
	}
}
