package scan

import (
	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

// deriveType classifies a match against the watch's last notification:
// no prior state is a first; the same listing at a lower total is a
// price_drop; a cheaper different listing is a better_deal; any match
// after the prior listing vanished is a previous_sold.
func deriveType(prior *watch.NotificationState, l *listing.NormalizedListing, priorGone bool) alert.NotificationType {
	if prior == nil {
		return alert.TypeFirst
	}
	if prior.Source == string(l.Source) && prior.ListingID == l.ListingID {
		if l.Total < prior.NotifiedPrice {
			return alert.TypePriceDrop
		}
		return alert.TypeFirst
	}
	if priorGone {
		return alert.TypePreviousSold
	}
	if l.Total < prior.NotifiedPrice {
		return alert.TypeBetterDeal
	}
	return alert.TypeFirst
}
