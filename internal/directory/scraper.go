package directory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

const (
	causeListPage = "?p=cause_list"
	maxPageBytes  = 4 << 20
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ajaxEndpoints lists, per level, the eCourts endpoints that answer with
// <option> fragments. They are tried in order.
var ajaxEndpoints = map[causelist.Level][]string{
	causelist.LevelDistrict: {
		"ajax/district_court_complex.php",
		"ajax/get_district.php",
		"includes/get_district.php",
	},
	causelist.LevelCourtComplex: {
		"ajax/district_court_complex.php",
		"ajax/get_court_complex.php",
	},
	causelist.LevelCourt: {
		"ajax/get_court.php",
	},
}

// ScraperConfig configures a Scraper.
type ScraperConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	// RatePerSecond limits upstream requests; zero disables limiting.
	RatePerSecond float64
	Burst         int
}

// Scraper reads the hierarchy from the eCourts site.
type Scraper struct {
	client  *http.Client
	base    *url.URL
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ Source = (*Scraper)(nil)

// NewScraper creates a Scraper for cfg.BaseURL.
func NewScraper(cfg ScraperConfig, logger *slog.Logger) (*Scraper, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid directory base url %q", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Scraper{
		client:  &http.Client{Timeout: timeout},
		base:    base,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}, nil
}

func (s *Scraper) Lookup(ctx context.Context, level causelist.Level, parents []string) ([]Entry, error) {
	if len(parents) != int(level) {
		return nil, fmt.Errorf("%s lookup needs %d parent values, got %d", level, int(level), len(parents))
	}

	if level == causelist.LevelState {
		return s.states(ctx)
	}

	codes, err := s.resolve(ctx, parents)
	if err != nil {
		return nil, err
	}
	return s.children(ctx, level, parents, codes)
}

func (s *Scraper) states(ctx context.Context) ([]Entry, error) {
	body, err := s.fetch(ctx, http.MethodGet, causeListPage, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	states, err := parseStateOptions(body)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("state dropdown has no options")
	}

	s.logger.Info("Found states", slog.Int("count", len(states)))
	return states, nil
}

// resolve maps each parent name to its upstream code by walking down the
// hierarchy.
func (s *Scraper) resolve(ctx context.Context, parents []string) ([]string, error) {
	codes := make([]string, 0, len(parents))
	for i, name := range parents {
		level := causelist.Levels[i]
		entries, err := s.Lookup(ctx, level, parents[:i])
		if err != nil {
			return nil, err
		}
		code, ok := valueOf(entries, name)
		if !ok {
			return nil, fmt.Errorf("%s %q: %w", level, name, ErrNotFound)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *Scraper) children(ctx context.Context, level causelist.Level, parents, codes []string) ([]Entry, error) {
	form := childForm(level, parents, codes)

	var lastErr error
	for _, endpoint := range ajaxEndpoints[level] {
		body, err := s.fetch(ctx, http.MethodPost, endpoint, form)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		entries, err := parseOptions(body)
		body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if len(entries) > 0 {
			s.logger.Info("Found entries",
				slog.String("level", level.String()),
				slog.String("endpoint", endpoint),
				slog.Int("count", len(entries)),
			)
			return entries, nil
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no %s options returned", level)
	}
	return nil, lastErr
}

// childForm builds the POST form asking for level's options.
func childForm(level causelist.Level, parents, codes []string) url.Values {
	form := url.Values{}
	form.Set("state_code", codes[0])
	form.Set("state_name", parents[0])
	switch level {
	case causelist.LevelDistrict:
		form.Set("type", "district")
	case causelist.LevelCourtComplex:
		form.Set("dist_code", codes[1])
		form.Set("type", "complex")
	case causelist.LevelCourt:
		form.Set("dist_code", codes[1])
		form.Set("court_complex_code", codes[2])
		form.Set("type", "court")
	}
	return form
}

func (s *Scraper) fetch(ctx context.Context, method, ref string, form url.Values) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	target, err := s.base.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", ref, err)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("Upstream request failed",
			slog.String("url", target.String()),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("request to %s failed: %w", target.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("request to %s returned %s", target.Path, resp.Status)
	}

	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxPageBytes), resp.Body}, nil
}
