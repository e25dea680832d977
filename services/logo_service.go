package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brandrank/audit-backend/platform"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const logoScrapeTimeout = 10 * time.Second

// LogoService resolves a display logo URL for a company. Known companies come
// from the record store; unknown ones get a best-effort scrape of the likely
// homepage for its declared icons, and finally a generated avatar. Lookup
// never fails, it only degrades.
type LogoService struct {
	companies platform.CompanyStore
}

// NewLogoService creates a new logo lookup service.
func NewLogoService(companies platform.CompanyStore) *LogoService {
	return &LogoService{companies: companies}
}

// LookupLogoURL returns a usable logo URL for the company name.
func (s *LogoService) LookupLogoURL(ctx context.Context, companyName string) string {
	trimmed := strings.TrimSpace(companyName)
	if trimmed == "" {
		return ""
	}

	if logoURL := s.storedLogo(ctx, trimmed); logoURL != "" {
		return logoURL
	}

	if logoURL := scrapeHomepageLogo(trimmed); logoURL != "" {
		return logoURL
	}

	return avatarURL(trimmed)
}

func (s *LogoService) storedLogo(ctx context.Context, companyName string) string {
	companies, err := s.companies.List(ctx)
	if err != nil {
		logrus.WithField("component", "LogoService").WithError(err).Warn("Company record lookup failed, falling back to scrape")
		return ""
	}

	for _, company := range companies {
		if strings.EqualFold(company.Name, companyName) {
			return company.LogoURL
		}
	}
	return ""
}

// scrapeHomepageLogo guesses the company homepage from its name and pulls the
// first declared social image or icon.
func scrapeHomepageLogo(companyName string) string {
	homepage := fmt.Sprintf("https://%s.com", companySlug(companyName))

	collector := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (compatible; BrandRankBot/1.0)"),
	)
	collector.SetRequestTimeout(logoScrapeTimeout)

	var logoURL string

	collector.OnHTML("head", func(e *colly.HTMLElement) {
		if logoURL != "" {
			return
		}
		if src := declaredLogo(e.DOM); src != "" {
			logoURL = e.Request.AbsoluteURL(src)
		}
	})

	if err := collector.Visit(homepage); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "LogoService",
			"homepage":  homepage,
		}).WithError(err).Debug("Homepage logo scrape failed")
		return ""
	}
	collector.Wait()

	return logoURL
}

// declaredLogo picks the best logo-ish asset declared in a document head.
func declaredLogo(head *goquery.Selection) string {
	if content, ok := head.Find(`meta[property="og:image"]`).Attr("content"); ok && content != "" {
		return content
	}
	if href, ok := head.Find(`link[rel="apple-touch-icon"]`).Attr("href"); ok && href != "" {
		return href
	}
	if href, ok := head.Find(`link[rel="icon"]`).Attr("href"); ok && href != "" {
		return href
	}
	return ""
}

func companySlug(companyName string) string {
	slug := strings.ToLower(companyName)
	for _, drop := range []string{" inc", " llc", " ltd", " corp", " co"} {
		slug = strings.TrimSuffix(slug, drop+".")
		slug = strings.TrimSuffix(slug, drop)
	}
	slug = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, slug)
	return slug
}

func avatarURL(companyName string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(companyName) + "&background=0D8ABC&color=fff"
}
