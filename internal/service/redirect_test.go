package service

import (
	"testing"

	"github.com/thefaces/checkout-service/internal/model"
)

func TestResolveRedirectPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		thankYouURL string
		redirectURL string
		want        string
	}{
		{
			name:        "thank-you url wins over legacy redirect",
			thankYouURL: "https://partner.example/thanks",
			redirectURL: "https://legacy.example/checkout",
			want:        "https://partner.example/thanks",
		},
		{
			name:        "legacy redirect when no thank-you url",
			redirectURL: "https://legacy.example/checkout",
			want:        "https://legacy.example/checkout",
		},
		{
			name: "internal thank-you page when neither is set",
			want: "/thank-you?key=chk_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &model.CheckoutConfig{
				CheckoutKey: "chk_1",
				ThankYouURL: tt.thankYouURL,
				RedirectURL: tt.redirectURL,
			}
			if got := ResolveRedirect(cfg); got != tt.want {
				t.Fatalf("ResolveRedirect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveRedirectIsIdempotent(t *testing.T) {
	cfg := &model.CheckoutConfig{
		CheckoutKey: "chk_1",
		RedirectURL: "https://legacy.example/checkout",
	}
	first := ResolveRedirect(cfg)
	second := ResolveRedirect(cfg)
	if first != second {
		t.Fatalf("resolver not stable: %q vs %q", first, second)
	}
}

func TestResolveRedirectEscapesKey(t *testing.T) {
	cfg := &model.CheckoutConfig{CheckoutKey: "chk 1&x"}
	if got := ResolveRedirect(cfg); got != "/thank-you?key=chk+1%26x" {
		t.Fatalf("ResolveRedirect() = %q", got)
	}
}
