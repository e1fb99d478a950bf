package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"TempoRelay/internal/model"
	"TempoRelay/internal/normalize"
)

// DefaultFallbackURL is the EDF commerce calendar endpoint.
const DefaultFallbackURL = "https://api-commerce.edf.fr/commerce/activet/v1/calendrier-jours-effacement"

const (
	windowBefore  = 364 // days before today
	windowAfter   = 2   // days after today
	consumerID    = "src"
	dateKeyLength = 10
)

// Field names vary between revisions of the EDF payload; the first present one wins.
var (
	edfListKeys  = []string{"content", "jours", "data"}
	edfDateKeys  = []string{"dateApplication", "dateJour", "date", "dateApp"}
	edfColorKeys = []string{"codeJour", "typeJourEffacement", "code", "couleur"}
)

// EDFFetcher implements DaySource using the EDF commerce calendar.
// It cannot answer for past days or statistics.
type EDFFetcher struct {
	Endpoint string
	Client   *resty.Client
}

// NewEDFFetcher creates a fallback fetcher with optional proxy support.
func NewEDFFetcher(endpoint, userAgent, proxyURL string) *EDFFetcher {
	if endpoint == "" {
		endpoint = DefaultFallbackURL
	}
	return &EDFFetcher{
		Endpoint: endpoint,
		Client:   newClient(fallbackTimeout, userAgent, proxyURL),
	}
}

func (f *EDFFetcher) Name() string { return "edf-commerce" }

// FetchDays pulls the calendar window around now and picks out today and tomorrow.
// Days missing from the window resolve to Unknown.
func (f *EDFFetcher) FetchDays(ctx context.Context, now time.Time) (model.DayPair, error) {
	var payload map[string]any
	if err := getJSONNumbers(ctx, f.Client, f.windowURL(now), &payload); err != nil {
		return model.DayPair{}, err
	}

	records, err := recordList(payload)
	if err != nil {
		return model.DayPair{}, err
	}

	byDate := make(map[string]model.Color)
	for i, item := range records {
		rec, ok := item.(map[string]any)
		if !ok {
			return model.DayPair{}, fmt.Errorf("unexpected payload: record %d is %T, not an object", i, item)
		}
		date := normalize.Text(firstPresent(rec, edfDateKeys))
		if date == "" {
			continue
		}
		if len(date) > dateKeyLength {
			date = date[:dateKeyLength]
		}
		byDate[date] = normalize.CodeOrLabel(firstPresent(rec, edfColorKeys))
	}

	// Missing keys read as the zero Color, which is Unknown.
	return model.DayPair{
		Today:    byDate[now.Format(time.DateOnly)],
		Tomorrow: byDate[now.AddDate(0, 0, 1).Format(time.DateOnly)],
	}, nil
}

func (f *EDFFetcher) windowURL(now time.Time) string {
	q := url.Values{}
	q.Set("option", "TEMPO")
	q.Set("dateApplicationBorneInf", unpaddedDate(now.AddDate(0, 0, -windowBefore)))
	q.Set("dateApplicationBorneSup", unpaddedDate(now.AddDate(0, 0, windowAfter)))
	q.Set("identifiantConsommateur", consumerID)
	return f.Endpoint + "?" + q.Encode()
}

// unpaddedDate formats without zero padding on month and day, as the EDF API expects.
func unpaddedDate(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// recordList returns the first present record list. An absent or empty list
// is a valid empty calendar; any other shape under that key is an error.
func recordList(payload map[string]any) ([]any, error) {
	for _, k := range edfListKeys {
		v := payload[k]
		if !present(v) {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected payload: %q is %T, not a list", k, v)
		}
		return list, nil
	}
	return nil, nil
}

// firstPresent returns the first value under keys that is present.
func firstPresent(rec map[string]any, keys []string) any {
	for _, k := range keys {
		if v := rec[k]; present(v) {
			return v
		}
	}
	return nil
}

// present reports whether v carries a value: null, false, zero and empty
// strings, lists or objects count as absent.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}
