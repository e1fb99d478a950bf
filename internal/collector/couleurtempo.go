package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"TempoRelay/internal/model"
	"TempoRelay/internal/normalize"
)

// DefaultPrimaryBaseURL is the public api-couleur-tempo.fr service.
const DefaultPrimaryBaseURL = "https://www.api-couleur-tempo.fr"

// CouleurTempoFetcher implements PrimarySource using the api-couleur-tempo.fr REST API.
type CouleurTempoFetcher struct {
	BaseURL string
	Client  *resty.Client
}

// NewCouleurTempoFetcher creates a primary fetcher with optional proxy support.
func NewCouleurTempoFetcher(baseURL, userAgent, proxyURL string) *CouleurTempoFetcher {
	if baseURL == "" {
		baseURL = DefaultPrimaryBaseURL
	}
	return &CouleurTempoFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newClient(primaryTimeout, userAgent, proxyURL),
	}
}

func (f *CouleurTempoFetcher) Name() string { return "api-couleur-tempo" }

// jourTempo is the /api/jourTempo/* payload. Only the color fields matter here.
type jourTempo struct {
	DateJour   string `json:"dateJour"`
	CodeJour   any    `json:"codeJour"`
	LibCouleur string `json:"libCouleur"`
}

func (j jourTempo) color() model.Color {
	return normalize.LabelOrCode(j.LibCouleur, j.CodeJour)
}

// FetchDays queries today and tomorrow separately. A failure of either request fails the pair.
func (f *CouleurTempoFetcher) FetchDays(ctx context.Context, _ time.Time) (model.DayPair, error) {
	today, err := f.fetchJour(ctx, "today")
	if err != nil {
		return model.DayPair{}, fmt.Errorf("today: %w", err)
	}
	tomorrow, err := f.fetchJour(ctx, "tomorrow")
	if err != nil {
		return model.DayPair{}, fmt.Errorf("tomorrow: %w", err)
	}
	return model.DayPair{Today: today, Tomorrow: tomorrow}, nil
}

// FetchDay looks up a single calendar day in the server's local date.
func (f *CouleurTempoFetcher) FetchDay(ctx context.Context, day time.Time) (model.Color, error) {
	return f.fetchJour(ctx, day.Format(time.DateOnly))
}

func (f *CouleurTempoFetcher) fetchJour(ctx context.Context, key string) (model.Color, error) {
	var j jourTempo
	if err := getJSON(ctx, f.Client, f.BaseURL+"/api/jourTempo/"+key, &j); err != nil {
		return model.Unknown, err
	}
	return j.color(), nil
}

// statsFields maps upstream stat names to the names served locally.
var statsFields = []struct {
	upstream string
	local    string
}{
	{"periode", "periode"},
	{"joursBleusConsommes", "bleu_used"},
	{"joursBlancsConsommes", "blanc_used"},
	{"joursRougesConsommes", "rouge_used"},
	{"joursBleusRestants", "bleu_left"},
	{"joursBlancsRestants", "blanc_left"},
	{"joursRougesRestants", "rouge_left"},
	{"dernierJourInclus", "last_included"},
	{"bissextile", "bissextile"},
}

// FetchStats returns the current period statistics, renamed but otherwise untouched.
func (f *CouleurTempoFetcher) FetchStats(ctx context.Context) (model.Stats, error) {
	var raw map[string]any
	if err := getJSON(ctx, f.Client, f.BaseURL+"/api/stats", &raw); err != nil {
		return nil, err
	}
	stats := make(model.Stats, len(statsFields))
	for _, fld := range statsFields {
		stats[fld.local] = raw[fld.upstream]
	}
	return stats, nil
}
