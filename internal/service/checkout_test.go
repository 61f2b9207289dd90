package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thefaces/checkout-service/internal/client"
	"github.com/thefaces/checkout-service/internal/dto"
	"github.com/thefaces/checkout-service/internal/model"
	"gorm.io/gorm"
)

// ---- fakes ----

type fakeGateway struct {
	calls   int
	lastReq *client.ChargeRequest
	result  *client.ChargeResult
	err     error
}

func (g *fakeGateway) Charge(ctx context.Context, req *client.ChargeRequest) (*client.ChargeResult, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type fakeCheckoutRepo struct {
	byKey map[string]*model.CheckoutConfig
}

func (r *fakeCheckoutRepo) FindByKey(ctx context.Context, key string) (*model.CheckoutConfig, error) {
	cfg, ok := r.byKey[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cfg, nil
}

func (r *fakeCheckoutRepo) FindByID(ctx context.Context, id uint) (*model.CheckoutConfig, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCheckoutRepo) List(ctx context.Context) ([]*model.CheckoutConfig, error) {
	return nil, nil
}

func (r *fakeCheckoutRepo) Create(ctx context.Context, cfg *model.CheckoutConfig) error { return nil }
func (r *fakeCheckoutRepo) Update(ctx context.Context, cfg *model.CheckoutConfig) error { return nil }
func (r *fakeCheckoutRepo) Deactivate(ctx context.Context, id uint) error               { return nil }

type fakeRegRepo struct {
	created   []*model.Registration
	createErr error
}

func (r *fakeRegRepo) Create(ctx context.Context, reg *model.Registration) error {
	if r.createErr != nil {
		return r.createErr
	}
	if reg.ID == "" {
		reg.ID = "reg_test_1"
	}
	r.created = append(r.created, reg)
	return nil
}

func (r *fakeRegRepo) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	for _, reg := range r.created {
		if reg.ID == id {
			return reg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRegRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Registration, error) {
	for _, reg := range r.created {
		if reg.IdempotencyKey != nil && *reg.IdempotencyKey == key {
			return reg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRegRepo) List(ctx context.Context, limit, offset int) ([]*model.Registration, error) {
	return r.created, nil
}

type fakeAnalyticsRepo struct {
	mu       sync.Mutex
	events   []string
	payloads []interface{}
	err      error
}

func (r *fakeAnalyticsRepo) Create(ctx context.Context, eventType string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, eventType)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *fakeAnalyticsRepo) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *fakeAnalyticsRepo) lastPayloadJSON(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.payloads) == 0 {
		t.Fatal("no analytics payload recorded")
	}
	data, err := json.Marshal(r.payloads[len(r.payloads)-1])
	require.NoError(t, err)
	return string(data)
}

// ---- helpers ----

func activeConfig() *model.CheckoutConfig {
	return &model.CheckoutConfig{
		ID:          7,
		CheckoutKey: "chk_1",
		PackageName: "General",
		Price:       decimal.RequireFromString("100.00"),
		Currency:    "USD",
		IsActive:    true,
	}
}

func validRequest() *dto.CheckoutRequest {
	return &dto.CheckoutRequest{
		CheckoutKey: "chk_1",
		FullName:    "Maria Quispe",
		Email:       "maria@example.com",
		Phone:       "+51 987 654 321",
		Country:     "PE",
		Quantity:    2,
		CulqiToken:  "tkn_test_abc",
		AcceptTerms: true,
	}
}

type pipeline struct {
	svc           CheckoutService
	gateway       *fakeGateway
	regRepo       *fakeRegRepo
	analyticsRepo *fakeAnalyticsRepo
	sink          *AnalyticsSink
}

func newPipeline(t *testing.T, gateway *fakeGateway, cfgs ...*model.CheckoutConfig) *pipeline {
	t.Helper()

	byKey := make(map[string]*model.CheckoutConfig)
	for _, cfg := range cfgs {
		byKey[cfg.CheckoutKey] = cfg
	}

	regRepo := &fakeRegRepo{}
	analyticsRepo := &fakeAnalyticsRepo{}
	sink := NewAnalyticsSink(analyticsRepo)

	return &pipeline{
		svc:           NewCheckoutService(gateway, &fakeCheckoutRepo{byKey: byKey}, regRepo, sink),
		gateway:       gateway,
		regRepo:       regRepo,
		analyticsRepo: analyticsRepo,
		sink:          sink,
	}
}

func approvedGateway(providerID string) *fakeGateway {
	return &fakeGateway{
		result: &client.ChargeResult{
			Status:     client.ChargeApproved,
			ProviderID: providerID,
			Raw:        []byte(`{"id":"` + providerID + `"}`),
		},
	}
}

// ---- scenarios ----

func TestSubmitApprovedCharge(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_abc"), activeConfig())

	result := p.svc.Submit(context.Background(), validRequest())
	p.sink.Wait()

	require.True(t, result.Success, "unexpected error: %s", result.Error)
	assert.Equal(t, "reg_test_1", result.RegistrationID)
	assert.Equal(t, "/thank-you?key=chk_1", result.ThankYouURL)

	require.Len(t, p.regRepo.created, 1)
	reg := p.regRepo.created[0]
	assert.Equal(t, uint(7), reg.CheckoutID)
	assert.Equal(t, model.PaymentStatusPaid, reg.PaymentStatus)
	assert.Equal(t, model.PaymentProviderCulqi, reg.PaymentProvider)
	assert.Equal(t, "chr_abc", reg.PaymentID)
	assert.True(t, reg.AmountPaid.Equal(decimal.RequireFromString("200.00")),
		"amountPaid = %s", reg.AmountPaid)

	var meta map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(reg.Metadata, &meta))
	assert.JSONEq(t, `"website"`, string(meta["source"]))
	assert.JSONEq(t, `2`, string(meta["quantity"]))
	assert.JSONEq(t, `{"id":"chr_abc"}`, string(meta["culqi_response"]))

	assert.Equal(t, 1, p.analyticsRepo.eventCount())
	assert.Equal(t, int64(20000), p.gateway.lastReq.AmountMinorUnits)
	assert.Equal(t, "Compra: General (x2)", p.gateway.lastReq.Description)
}

func TestSubmitAnalyticsPayloadUsesNumbers(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_num"), activeConfig())

	result := p.svc.Submit(context.Background(), validRequest())
	p.sink.Wait()

	require.True(t, result.Success)
	// money fields must land as JSON numbers, not quoted decimal strings
	assert.JSONEq(t, `{
		"registrationId": "reg_test_1",
		"checkoutKey": "chk_1",
		"price": 100,
		"quantity": 2,
		"totalPrice": 200,
		"paymentStatus": "paid"
	}`, p.analyticsRepo.lastPayloadJSON(t))
}

func TestSubmitAmountRoundsNotTruncates(t *testing.T) {
	cfg := activeConfig()
	cfg.Price = decimal.RequireFromString("19.995")

	p := newPipeline(t, approvedGateway("chr_r"), cfg)

	req := validRequest()
	req.Quantity = 1
	result := p.svc.Submit(context.Background(), req)

	require.True(t, result.Success)
	assert.Equal(t, int64(2000), p.gateway.lastReq.AmountMinorUnits, "19.995 must round to 2000, not 1999")
}

func TestSubmitMinorUnitGrid(t *testing.T) {
	tests := []struct {
		price    string
		quantity int
		want     int64
	}{
		{price: "100.00", quantity: 2, want: 20000},
		{price: "0", quantity: 1, want: 0},
		{price: "33.335", quantity: 3, want: 10001}, // 100.005 rounds up
		{price: "10.10", quantity: 10, want: 10100},
	}

	for _, tt := range tests {
		cfg := activeConfig()
		cfg.Price = decimal.RequireFromString(tt.price)
		p := newPipeline(t, approvedGateway("chr_g"), cfg)

		req := validRequest()
		req.Quantity = tt.quantity
		result := p.svc.Submit(context.Background(), req)

		require.True(t, result.Success, "price=%s qty=%d: %s", tt.price, tt.quantity, result.Error)
		assert.Equal(t, tt.want, p.gateway.lastReq.AmountMinorUnits, "price=%s qty=%d", tt.price, tt.quantity)
	}
}

func TestSubmitRejectsWithoutAcceptedTerms(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_x"), activeConfig())

	req := validRequest()
	req.AcceptTerms = false
	result := p.svc.Submit(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, "Debes aceptar los terminos y condiciones", result.Error)
	assert.Zero(t, p.gateway.calls, "no charge may be attempted for an invalid request")
	assert.Empty(t, p.regRepo.created)
}

func TestSubmitFirstValidationErrorWins(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_x"), activeConfig())

	req := validRequest()
	req.FullName = "X"
	req.Email = "not-an-email"
	result := p.svc.Submit(context.Background(), req)

	assert.Equal(t, "El nombre es muy corto", result.Error)
	assert.Zero(t, p.gateway.calls)
}

func TestSubmitValidationMessages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.CheckoutRequest)
		want   string
	}{
		{name: "bad email", mutate: func(r *dto.CheckoutRequest) { r.Email = "nope" }, want: "Email invalido"},
		{name: "short phone", mutate: func(r *dto.CheckoutRequest) { r.Phone = "123" }, want: "Numero de telefono invalido"},
		{name: "missing country", mutate: func(r *dto.CheckoutRequest) { r.Country = "" }, want: "Selecciona un pais"},
		{name: "missing token", mutate: func(r *dto.CheckoutRequest) { r.CulqiToken = "" }, want: "Token de pago requerido"},
		{name: "quantity too high", mutate: func(r *dto.CheckoutRequest) { r.Quantity = 11 }, want: "Datos invalidos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, approvedGateway("chr_x"), activeConfig())
			req := validRequest()
			tt.mutate(req)

			result := p.svc.Submit(context.Background(), req)
			assert.Equal(t, tt.want, result.Error)
			assert.Zero(t, p.gateway.calls)
		})
	}
}

func TestSubmitQuantityDefaultsToOne(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_q"), activeConfig())

	req := validRequest()
	req.Quantity = 0
	result := p.svc.Submit(context.Background(), req)

	require.True(t, result.Success)
	assert.Equal(t, int64(10000), p.gateway.lastReq.AmountMinorUnits)
}

func TestSubmitUnknownKey(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_x"), activeConfig())

	req := validRequest()
	req.CheckoutKey = "chk_missing"
	result := p.svc.Submit(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, "El paquete no esta disponible.", result.Error)
	assert.Zero(t, p.gateway.calls)
	assert.Empty(t, p.regRepo.created)
}

func TestSubmitInactivePackage(t *testing.T) {
	cfg := activeConfig()
	cfg.IsActive = false
	p := newPipeline(t, approvedGateway("chr_x"), cfg)

	result := p.svc.Submit(context.Background(), validRequest())

	assert.False(t, result.Success)
	assert.Equal(t, "El paquete no esta disponible.", result.Error)
	assert.Zero(t, p.gateway.calls)
	assert.Empty(t, p.regRepo.created)
}

func TestSubmitDeclinedCharge(t *testing.T) {
	gateway := &fakeGateway{
		result: &client.ChargeResult{
			Status:      client.ChargeDeclined,
			UserMessage: "Tarjeta rechazada",
			Raw:         []byte(`{"user_message":"Tarjeta rechazada"}`),
		},
	}
	p := newPipeline(t, gateway, activeConfig())

	result := p.svc.Submit(context.Background(), validRequest())

	assert.False(t, result.Success)
	assert.Equal(t, "Tarjeta rechazada", result.Error)
	assert.Empty(t, p.regRepo.created, "a declined charge must not produce a registration")
}

func TestSubmitDeclineFallbackMessage(t *testing.T) {
	gateway := &fakeGateway{
		result: &client.ChargeResult{Status: client.ChargeDeclined},
	}
	p := newPipeline(t, gateway, activeConfig())

	result := p.svc.Submit(context.Background(), validRequest())

	assert.Equal(t, "El pago fue rechazado. Verifica tu tarjeta e intenta nuevamente.", result.Error)
	assert.Empty(t, p.regRepo.created)
}

func TestSubmitTransportError(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("dial tcp: i/o timeout")}
	p := newPipeline(t, gateway, activeConfig())

	result := p.svc.Submit(context.Background(), validRequest())

	assert.False(t, result.Success)
	assert.Equal(t, "Error de conexion con la pasarela de pago.", result.Error)
	assert.Empty(t, p.regRepo.created)
}

func TestSubmitDevBypass(t *testing.T) {
	gateway := &fakeGateway{
		result: &client.ChargeResult{Status: client.ChargeBypassed},
	}
	p := newPipeline(t, gateway, activeConfig())

	result := p.svc.Submit(context.Background(), validRequest())

	require.True(t, result.Success)
	require.Len(t, p.regRepo.created, 1)
	reg := p.regRepo.created[0]
	assert.Equal(t, model.PaymentStatusPendingDev, reg.PaymentStatus)
	assert.Empty(t, reg.PaymentID)
}

func TestSubmitRegistrationWriteFailure(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_orphan"), activeConfig())
	p.regRepo.createErr = errors.New("connection refused")

	result := p.svc.Submit(context.Background(), validRequest())
	p.sink.Wait()

	assert.False(t, result.Success)
	assert.Equal(t, "Ocurrio un error al procesar tu registro. Por favor intenta nuevamente.", result.Error)
	assert.Zero(t, p.analyticsRepo.eventCount(), "no event for a registration that was never written")
}

func TestSubmitAnalyticsFailureDoesNotAffectOutcome(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_ok"), activeConfig())
	p.analyticsRepo.err = errors.New("analytics store down")

	result := p.svc.Submit(context.Background(), validRequest())
	p.sink.Wait()

	assert.True(t, result.Success)
	assert.Len(t, p.regRepo.created, 1)
	assert.Zero(t, p.analyticsRepo.eventCount())
}

func TestSubmitIdempotentReplay(t *testing.T) {
	p := newPipeline(t, approvedGateway("chr_once"), activeConfig())

	req := validRequest()
	req.IdempotencyKey = "idem-123"

	first := p.svc.Submit(context.Background(), req)
	require.True(t, first.Success)

	second := p.svc.Submit(context.Background(), req)
	require.True(t, second.Success)

	assert.Equal(t, first.RegistrationID, second.RegistrationID)
	assert.Equal(t, first.ThankYouURL, second.ThankYouURL)
	assert.Equal(t, 1, p.gateway.calls, "replay must not charge again")
	assert.Len(t, p.regRepo.created, 1)
}

func TestSubmitRedirectUsesThankYouURL(t *testing.T) {
	cfg := activeConfig()
	cfg.ThankYouURL = "https://partner.example/thanks"
	cfg.RedirectURL = "https://legacy.example/next"
	p := newPipeline(t, approvedGateway("chr_r"), cfg)

	result := p.svc.Submit(context.Background(), validRequest())

	require.True(t, result.Success)
	assert.Equal(t, "https://partner.example/thanks", result.ThankYouURL)
}

func TestHostedRedirect(t *testing.T) {
	cfg := activeConfig()
	cfg.RedirectURL = "https://external.example/checkout"
	p := newPipeline(t, approvedGateway(""), cfg)

	url, err := p.svc.HostedRedirect(context.Background(), "chk_1")
	p.sink.Wait()

	require.NoError(t, err)
	assert.Equal(t, "https://external.example/checkout", url)
	assert.Equal(t, 1, p.analyticsRepo.eventCount())

	_, err = p.svc.HostedRedirect(context.Background(), "chk_missing")
	assert.ErrorIs(t, err, ErrCheckoutNotFound)

	cfg.IsActive = false
	_, err = p.svc.HostedRedirect(context.Background(), "chk_1")
	assert.ErrorIs(t, err, ErrCheckoutInactive)
}

func TestThankYouInfo(t *testing.T) {
	cfg := activeConfig()
	p := newPipeline(t, approvedGateway(""), cfg)

	info, err := p.svc.ThankYouInfo(context.Background(), "chk_1")
	require.NoError(t, err)
	assert.Equal(t, "General", info.PackageName)
	assert.Equal(t, 100.0, info.Price)
	assert.Equal(t, "USD", info.Currency)

	_, err = p.svc.ThankYouInfo(context.Background(), "chk_missing")
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
}

func TestThankYouInfoHidesInactivePackage(t *testing.T) {
	cfg := activeConfig()
	cfg.IsActive = false
	p := newPipeline(t, approvedGateway(""), cfg)

	info, err := p.svc.ThankYouInfo(context.Background(), "chk_1")
	assert.ErrorIs(t, err, ErrCheckoutNotFound, "a deactivated package must look like a missing one")
	assert.Nil(t, info)
}
