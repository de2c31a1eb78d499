package hiscores

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/mcoot/leaguetracker/internal/model"
)

var tracer = otel.Tracer("github.com/mcoot/leaguetracker/internal/hiscores")

// Config holds settings for talking to the hiscores site
type Config struct {
	// BaseURL is the seasonal hiscores root, without a trailing slash
	BaseURL string

	// RequestsPerSecond limits outgoing requests. Zero or less disables limiting.
	RequestsPerSecond float64

	// Timeout bounds each HTTP request
	Timeout time.Duration

	UserAgent string
}

// DefaultConfig returns the settings used against the live site
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://secure.runescape.com/m=hiscore_oldschool_seasonal",
		RequestsPerSecond: 5,
		Timeout:           30 * time.Second,
		UserAgent:         "leaguetracker/1.0",
	}
}

// Client fetches ranking pages and player stats over HTTP.
// It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

var (
	_ RosterSource = (*Client)(nil)
	_ StatSource   = (*Client)(nil)
)

// NewClient creates a hiscores client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	if cfg.RequestsPerSecond > 0 {
		// burst >= rate so no request is dropped
		burst := int(math.Ceil(cfg.RequestsPerSecond))
		limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Client{
		http:   httpClient,
		logger: logger.With(slog.String("component", "hiscores")),
	}
}

// FetchPage fetches one page of the overall ranking. A page that cannot be
// parsed is treated as the end of the ranking rather than an error.
func (c *Client) FetchPage(ctx context.Context, page int) (_ *Page, err error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	span.SetAttributes(attribute.Int("hiscores.page", page))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"category_type": "1",
			"table":         "0",
			"page":          strconv.Itoa(page),
		}).
		Get("/overall")
	if err != nil {
		return nil, fmt.Errorf("fetch ranking page %d: %w", page, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch ranking page %d: unexpected status %d", page, res.StatusCode())
	}

	result, err := parseRosterPage(bytes.NewReader(res.Body()), page)
	if err != nil {
		if errors.Is(err, ErrMalformedPage) {
			c.logger.Warn("treating malformed ranking page as end of roster",
				slog.Int("page", page),
				slog.String("error", err.Error()),
			)
			return &Page{Entries: []Entry{}}, nil
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("hiscores.entries", len(result.Entries)),
		attribute.Bool("hiscores.has_next", result.HasNext),
	)
	return result, nil
}

// FetchStats fetches a player's index_lite record. Any non-200 response
// means the player is not ranked.
func (c *Client) FetchStats(ctx context.Context, displayName string) (_ *model.Stats, err error) {
	ctx, span := tracer.Start(ctx, "FetchStats")
	span.SetAttributes(attribute.String("hiscores.player", displayName))
	defer func() {
		if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("player", displayName).
		Get("/index_lite.ws")
	if err != nil {
		return nil, fmt.Errorf("fetch stats for %s: %w", displayName, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, model.ErrPlayerNotFound
	}

	stats, err := parseStats(res.String())
	if err != nil {
		return nil, fmt.Errorf("stats for %s: %w", displayName, err)
	}
	return stats, nil
}
