package notify

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

func samplePayload() alert.Payload {
	return alert.Payload{
		Type:             alert.TypePriceDrop,
		ItemRef:          "minifig:sw0010",
		ItemName:         "Darth Maul",
		Price:            340.0,
		Shipping:         10.0,
		Import:           0,
		Total:            350.0,
		CurrencyOriginal: "EUR",
		Target:           550.0,
		SavingsAbs:       200.0,
		SavingsPct:       36.4,
		ShipFromCountry:  "DE",
		Condition:        "used",
		SellerName:       "figdealer",
		ListingURL:       "https://www.ebay.de/itm/123",
	}
}

func TestRenderAlert_TypePrefixes(t *testing.T) {
	cases := map[alert.NotificationType]string{
		alert.TypePriceDrop:    "Price drop: ",
		alert.TypeBetterDeal:   "Better deal: ",
		alert.TypePreviousSold: "Previous deal sold, next best: ",
		alert.TypeReminder:     "Still available: ",
		alert.TypeFirst:        "Deal found: ",
	}
	for typ, prefix := range cases {
		p := samplePayload()
		p.Type = typ

		text := renderAlert(p)

		assert.Contains(t, text, prefix+"Darth Maul", "type %s", typ)
	}
}

func TestRenderAlert_Body(t *testing.T) {
	text := renderAlert(samplePayload())

	assert.Contains(t, text, "Total 350.00 EUR (item 340.00 + shipping 10.00 + import 0.00)")
	assert.Contains(t, text, "Target 550.00 EUR, saves 200.00 (36.4%)")
	assert.Contains(t, text, "EUR seller figdealer, ships from DE, condition used")
	assert.Contains(t, text, "https://www.ebay.de/itm/123")
	assert.NotContains(t, text, "~estimated")
}

func TestRenderAlert_MarksEstimatedCosts(t *testing.T) {
	p := samplePayload()
	p.IsEstimate = true

	assert.Contains(t, renderAlert(p), "~estimated")
}

func TestRenderDigest(t *testing.T) {
	d := alert.Digest{
		WatchCount: 3,
		Best: []alert.Alert{
			{ItemRef: catalog.ItemRef{Kind: catalog.KindMinifig, ID: "sw0010"}, Total: 470.0, Target: 550.0},
			{ItemRef: catalog.ItemRef{Kind: catalog.KindSet, ID: "75192"}, Total: 620.0, Target: 700.0},
		},
	}

	text := renderDigest(d)

	assert.Contains(t, text, "Weekly digest: 3 active watches")
	assert.Contains(t, text, "- minifig:sw0010 at 470.00 EUR (target 550.00)")
	assert.Contains(t, text, "- set:75192 at 620.00 EUR (target 700.00)")
}

func TestRenderDigest_Empty(t *testing.T) {
	text := renderDigest(alert.Digest{WatchCount: 2})

	assert.Contains(t, text, "No deals under target this week.")
}

func TestIsBlocked(t *testing.T) {
	assert.True(t, isBlocked(&tgbotapi.Error{Code: 403, Message: "Forbidden"}))
	assert.True(t, isBlocked(errors.New("Forbidden: bot was blocked by the user")))
	assert.True(t, isBlocked(errors.New("Forbidden: user is deactivated")))
	assert.False(t, isBlocked(&tgbotapi.Error{Code: 429, Message: "Too Many Requests"}))
	assert.False(t, isBlocked(errors.New("connection reset")))
}

func TestMapTelegramError(t *testing.T) {
	assert.Equal(t, shared.ErrRateLimit, shared.KindOf(mapTelegramError(&tgbotapi.Error{Code: 429})))
	assert.Equal(t, shared.ErrServer, shared.KindOf(mapTelegramError(&tgbotapi.Error{Code: 502})))
	assert.Equal(t, shared.ErrAuth, shared.KindOf(mapTelegramError(&tgbotapi.Error{Code: 401})))
	assert.Equal(t, shared.ErrNetwork, shared.KindOf(mapTelegramError(errors.New("eof"))))
}
