package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/thefaces/checkout-service/internal/client"
	"github.com/thefaces/checkout-service/internal/dto"
	"github.com/thefaces/checkout-service/internal/model"
	"github.com/thefaces/checkout-service/internal/repository"
	"gorm.io/gorm"
)

// User-facing messages, kept in the buyers' locale. Internal detail is
// logged server-side only.
const (
	msgPackageUnavailable = "El paquete no esta disponible."
	msgPaymentDeclined    = "El pago fue rechazado. Verifica tu tarjeta e intenta nuevamente."
	msgPaymentConnection  = "Error de conexion con la pasarela de pago."
	msgProcessingError    = "Ocurrio un error al procesar tu registro. Por favor intenta nuevamente."
)

// MsgInvalidData covers malformed payloads; the handler layer reports it
// too when the request cannot even be bound.
const MsgInvalidData = "Datos invalidos"

// Sentinel lookup errors for the hosted redirect / thank-you flows.
var (
	ErrCheckoutNotFound = errors.New("checkout not found")
	ErrCheckoutInactive = errors.New("checkout not active")
)

const eventRegistrationCreated = "registration_created"
const eventCheckoutRedirect = "checkout_redirect"

type CheckoutService interface {
	// Submit runs the full checkout pipeline for one buyer submission.
	// The result always carries either a registration id and redirect URL
	// or a user-facing error message.
	Submit(ctx context.Context, req *dto.CheckoutRequest) *dto.CheckoutResult

	// HostedRedirect resolves the external checkout URL for a
	// redirect-only package and logs the visit.
	HostedRedirect(ctx context.Context, checkoutKey string) (string, error)

	// ThankYouInfo returns the display fields for the internal
	// confirmation page.
	ThankYouInfo(ctx context.Context, checkoutKey string) (*dto.ThankYouInfo, error)
}

type checkoutServiceImpl struct {
	gateway      client.PaymentGateway
	checkoutRepo repository.CheckoutConfigRepository
	regRepo      repository.RegistrationRepository
	analytics    *AnalyticsSink
	validate     *validator.Validate
}

func NewCheckoutService(
	gateway client.PaymentGateway,
	checkoutRepo repository.CheckoutConfigRepository,
	regRepo repository.RegistrationRepository,
	analytics *AnalyticsSink,
) CheckoutService {
	return &checkoutServiceImpl{
		gateway:      gateway,
		checkoutRepo: checkoutRepo,
		regRepo:      regRepo,
		analytics:    analytics,
		validate:     validator.New(),
	}
}

func (s *checkoutServiceImpl) Submit(ctx context.Context, req *dto.CheckoutRequest) *dto.CheckoutResult {
	// Form binding cannot distinguish an absent quantity from an explicit
	// zero, so both mean a single ticket. Anything else out of range is
	// rejected below.
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Source == "" {
		req.Source = "website"
	}

	// 1. Structural validation, before any external call.
	if msg, ok := s.firstValidationError(req); !ok {
		return &dto.CheckoutResult{Error: msg}
	}

	// 2. Catalog lookup. Inactive entries are never charged against.
	checkoutCfg, err := s.checkoutRepo.FindByKey(ctx, req.CheckoutKey)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("checkout config lookup error: %v", err)
		return &dto.CheckoutResult{Error: msgProcessingError}
	}
	if checkoutCfg == nil || !checkoutCfg.IsActive {
		return &dto.CheckoutResult{Error: msgPackageUnavailable}
	}

	// Idempotency: a replayed key returns the stored outcome instead of
	// charging again.
	if req.IdempotencyKey != "" {
		prior, err := s.regRepo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			return &dto.CheckoutResult{
				Success:        true,
				RegistrationID: prior.ID,
				ThankYouURL:    ResolveRedirect(checkoutCfg),
			}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("idempotency lookup error: %v", err)
			return &dto.CheckoutResult{Error: msgProcessingError}
		}
	}

	// 3. Amount. Rounded, not truncated, so fractional cents never
	// systematically undercharge.
	totalPrice := checkoutCfg.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
	amountMinor := totalPrice.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	// 4. Single charge attempt. Retrying is the buyer re-submitting.
	charge, err := s.gateway.Charge(ctx, &client.ChargeRequest{
		AmountMinorUnits: amountMinor,
		Currency:         checkoutCfg.Currency,
		Email:            req.Email,
		Token:            req.CulqiToken,
		Description:      fmt.Sprintf("Compra: %s (x%d)", checkoutCfg.PackageName, req.Quantity),
		Phone:            req.Phone,
	})
	if err != nil {
		log.Printf("payment processing error: %v", err)
		return &dto.CheckoutResult{Error: msgPaymentConnection}
	}

	var paymentStatus, paymentID string
	switch charge.Status {
	case client.ChargeApproved:
		paymentStatus = model.PaymentStatusPaid
		paymentID = charge.ProviderID
	case client.ChargeBypassed:
		log.Printf("payment gateway not configured, skipping real charge")
		paymentStatus = model.PaymentStatusPendingDev
	default:
		log.Printf("culqi payment declined: %s", charge.Raw)
		msg := charge.UserMessage
		if msg == "" {
			msg = msgPaymentDeclined
		}
		return &dto.CheckoutResult{Error: msg}
	}

	// 5. Registration write. If this fails after an approved charge the
	// money moved with no record; log the provider id so reconciliation
	// has something to work from.
	reg := &model.Registration{
		CheckoutID:      checkoutCfg.ID,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Country:         req.Country,
		PaymentStatus:   paymentStatus,
		PaymentProvider: model.PaymentProviderCulqi,
		PaymentID:       paymentID,
		AmountPaid:      totalPrice,
		Metadata:        registrationMetadata(req.Source, req.Quantity, charge.Raw),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		reg.IdempotencyKey = &key
	}

	if err := s.regRepo.Create(ctx, reg); err != nil {
		log.Printf("registration write failed (payment_id=%q, status=%s): %v", paymentID, paymentStatus, err)
		return &dto.CheckoutResult{Error: msgProcessingError}
	}

	// 6. Best-effort analytics, isolated from the response path. Money
	// fields go out as JSON numbers, not decimal strings, so downstream
	// queries can aggregate them.
	s.analytics.Record(eventRegistrationCreated, map[string]interface{}{
		"registrationId": reg.ID,
		"checkoutKey":    req.CheckoutKey,
		"price":          checkoutCfg.Price.InexactFloat64(),
		"quantity":       req.Quantity,
		"totalPrice":     totalPrice.InexactFloat64(),
		"paymentStatus":  paymentStatus,
	})

	// 7-8. Redirect resolution and result.
	return &dto.CheckoutResult{
		Success:        true,
		RegistrationID: reg.ID,
		ThankYouURL:    ResolveRedirect(checkoutCfg),
	}
}

func (s *checkoutServiceImpl) HostedRedirect(ctx context.Context, checkoutKey string) (string, error) {
	checkoutCfg, err := s.checkoutRepo.FindByKey(ctx, checkoutKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCheckoutNotFound
		}
		return "", fmt.Errorf("checkout config lookup: %w", err)
	}
	if !checkoutCfg.IsActive {
		return "", ErrCheckoutInactive
	}

	s.analytics.Record(eventCheckoutRedirect, map[string]interface{}{
		"checkoutKey": checkoutKey,
		"packageName": checkoutCfg.PackageName,
		"price":       checkoutCfg.Price.InexactFloat64(),
	})

	return checkoutCfg.RedirectURL, nil
}

func (s *checkoutServiceImpl) ThankYouInfo(ctx context.Context, checkoutKey string) (*dto.ThankYouInfo, error) {
	checkoutCfg, err := s.checkoutRepo.FindByKey(ctx, checkoutKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("checkout config lookup: %w", err)
	}
	// A deactivated package is indistinguishable from a missing one here;
	// its confirmation page must not leak display fields.
	if !checkoutCfg.IsActive {
		return nil, ErrCheckoutNotFound
	}

	return &dto.ThankYouInfo{
		PackageName: checkoutCfg.PackageName,
		Price:       checkoutCfg.Price.InexactFloat64(),
		Currency:    checkoutCfg.Currency,
	}, nil
}

// firstValidationError reports the first failing field, in struct order,
// with its buyer-facing message.
func (s *checkoutServiceImpl) firstValidationError(req *dto.CheckoutRequest) (string, bool) {
	err := s.validate.Struct(req)
	if err == nil {
		return "", true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return MsgInvalidData, false
	}

	switch verrs[0].Field() {
	case "FullName":
		return "El nombre es muy corto", false
	case "Email":
		return "Email invalido", false
	case "Phone":
		return "Numero de telefono invalido", false
	case "Country":
		return "Selecciona un pais", false
	case "CulqiToken":
		return "Token de pago requerido", false
	case "AcceptTerms":
		return "Debes aceptar los terminos y condiciones", false
	default:
		return MsgInvalidData, false
	}
}

func registrationMetadata(source string, quantity int, rawGatewayResponse []byte) []byte {
	meta := map[string]interface{}{
		"source":   source,
		"quantity": quantity,
	}
	if len(rawGatewayResponse) > 0 {
		meta["culqi_response"] = json.RawMessage(rawGatewayResponse)
	} else {
		meta["culqi_response"] = nil
	}

	data, err := json.Marshal(meta)
	if err != nil {
		// The raw response was not valid JSON; keep the rest of the blob.
		data, _ = json.Marshal(map[string]interface{}{
			"source":   source,
			"quantity": quantity,
		})
	}
	return data
}
