package service

import (
	"net/url"

	"github.com/thefaces/checkout-service/internal/model"
)

// ResolveRedirect computes the post-purchase destination for a completed
// checkout. Precedence, first match wins:
//
//  1. the entry's custom thank-you URL (buyer leaves the site)
//  2. the entry's legacy redirect URL
//  3. the internal thank-you page for the entry's public key
//
// Changing this order silently breaks post-purchase messaging for every
// buyer of the package, so keep it in sync with the checkout front-end.
func ResolveRedirect(cfg *model.CheckoutConfig) string {
	if cfg.ThankYouURL != "" {
		return cfg.ThankYouURL
	}
	if cfg.RedirectURL != "" {
		return cfg.RedirectURL
	}
	return "/thank-you?key=" + url.QueryEscape(cfg.CheckoutKey)
}
