package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thefaces/checkout-service/internal/config"
)

// Culqi caps the antifraud phone field at 15 characters.
const maxPhoneDigits = 15

type culqiClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
}

func NewCulqiClient(culqiCfg *config.Culqi) PaymentGateway {
	timeout := time.Duration(culqiCfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &culqiClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL: culqiCfg.BaseApiURL,
		secretKey:  culqiCfg.SecretKey,
	}
}

type culqiChargeBody struct {
	Amount           int64                 `json:"amount"`
	CurrencyCode     string                `json:"currency_code"`
	Email            string                `json:"email"`
	SourceID         string                `json:"source_id"`
	Description      string                `json:"description"`
	AntifraudDetails culqiAntifraudDetails `json:"antifraud_details"`
}

type culqiAntifraudDetails struct {
	PhoneNumber string `json:"phone_number"`
}

func (c *culqiClientImpl) Charge(ctx context.Context, chargeReq *ChargeRequest) (*ChargeResult, error) {
	payload := culqiChargeBody{
		Amount:       chargeReq.AmountMinorUnits,
		CurrencyCode: chargeReq.Currency,
		Email:        chargeReq.Email,
		SourceID:     chargeReq.Token,
		Description:  chargeReq.Description,
		AntifraudDetails: culqiAntifraudDetails{
			PhoneNumber: normalizePhone(chargeReq.Phone),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal charge payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v2/charges",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("culqi charge request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read culqi response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var decline struct {
			UserMessage string `json:"user_message"`
		}
		json.Unmarshal(raw, &decline)

		return &ChargeResult{
			Status:      ChargeDeclined,
			UserMessage: decline.UserMessage,
			Raw:         raw,
		}, nil
	}

	var charge struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &charge); err != nil {
		return nil, fmt.Errorf("decode culqi response: %w", err)
	}

	return &ChargeResult{
		Status:     ChargeApproved,
		ProviderID: charge.ID,
		Raw:        raw,
	}, nil
}

// normalizePhone strips everything but digits and truncates to the
// provider's maximum.
func normalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if len(digits) > maxPhoneDigits {
		digits = digits[:maxPhoneDigits]
	}
	return digits
}
