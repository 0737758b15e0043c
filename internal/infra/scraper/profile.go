// Package scraper fetches catalog listing pages and extracts product cards
// from them with goquery.
package scraper

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Tommy88/xparser/internal/domain/entity"
)

// Key schemes select which card attribute becomes the entry key.
const (
	KeySchemeID    = "id"
	KeySchemeTitle = "title"
)

// DefaultCatalogURL is the Xbox deals listing for the Turkish store.
const DefaultCatalogURL = "https://www.microsoft.com/tr-tr/store/deals/games/xbox"

// Profile describes how to read one catalog listing. Every selector is a
// goquery (CSS) selector evaluated relative to the card, except CardSelector
// and PaginationSelector which are evaluated against the page.
type Profile struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	KeyScheme string `yaml:"key_scheme"`

	CardSelector     string `yaml:"card_selector"`
	IDAttr           string `yaml:"id_attr"`
	TitleAttr        string `yaml:"title_attr"`
	OldPriceSelector string `yaml:"old_price_selector"`
	NewPriceSelector string `yaml:"new_price_selector"`
	ImageSelector    string `yaml:"image_selector"`
	ImageAttr        string `yaml:"image_attr"`
	// ImageCutMarker truncates image URLs at its first occurrence ("?q" drops
	// the resize query the storefront appends).
	ImageCutMarker string `yaml:"image_cut_marker"`

	PaginationSelector string `yaml:"pagination_selector"`
	NextLinkSelector   string `yaml:"next_link_selector"`
	DisabledClass      string `yaml:"disabled_class"`
	MaxPages           int    `yaml:"max_pages"`

	// MissingValue is written for attributes a card does not carry.
	MissingValue string `yaml:"missing_value"`
	FreeToken    string `yaml:"free_token"`

	Headers map[string]string `yaml:"headers"`
}

// DefaultProfile returns the profile for the Xbox TR deals listing.
func DefaultProfile() Profile {
	return Profile{
		Name:               "xbox-tr-deals",
		URL:                DefaultCatalogURL,
		KeyScheme:          KeySchemeID,
		CardSelector:       "div.card.h-100.material-card.depth-4.depth-8-hover.pb-4",
		IDAttr:             "data-bi-pid",
		TitleAttr:          "data-bi-prdname",
		OldPriceSelector:   "span.text-line-through.text-muted",
		NewPriceSelector:   "span.font-weight-semibold",
		ImageSelector:      "img",
		ImageAttr:          "src",
		ImageCutMarker:     "?q",
		PaginationSelector: "li.page-item",
		NextLinkSelector:   "a.page-link",
		DisabledClass:      "disabled",
		MaxPages:           50,
		MissingValue:       "N/A",
		FreeToken:          entity.DefaultFreeToken,
		Headers: map[string]string{
			"Accept":          "*/*",
			"Accept-Language": "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7",
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
			"Cache-Control":   "no-cache, no-store",
			"Client-Id":       "NO_AUTH",
			"Client-Version":  "1DS-Web-JS-3.2.18",
		},
	}
}

// LoadProfile reads a YAML profile from path. Fields the file omits keep
// their DefaultProfile values; a headers block replaces the default headers.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile on top of DefaultProfile and validates it.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	var override Profile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	p.merge(override)
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p *Profile) merge(o Profile) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Name, o.Name)
	set(&p.URL, o.URL)
	set(&p.KeyScheme, o.KeyScheme)
	set(&p.CardSelector, o.CardSelector)
	set(&p.IDAttr, o.IDAttr)
	set(&p.TitleAttr, o.TitleAttr)
	set(&p.OldPriceSelector, o.OldPriceSelector)
	set(&p.NewPriceSelector, o.NewPriceSelector)
	set(&p.ImageSelector, o.ImageSelector)
	set(&p.ImageAttr, o.ImageAttr)
	set(&p.ImageCutMarker, o.ImageCutMarker)
	set(&p.PaginationSelector, o.PaginationSelector)
	set(&p.NextLinkSelector, o.NextLinkSelector)
	set(&p.DisabledClass, o.DisabledClass)
	set(&p.MissingValue, o.MissingValue)
	set(&p.FreeToken, o.FreeToken)
	if o.MaxPages > 0 {
		p.MaxPages = o.MaxPages
	}
	if len(o.Headers) > 0 {
		p.Headers = o.Headers
	}
}

// Validate checks that the profile can drive a crawl.
func (p Profile) Validate() error {
	if err := entity.ValidateURL("url", p.URL); err != nil {
		return err
	}
	switch strings.ToLower(p.KeyScheme) {
	case KeySchemeID, KeySchemeTitle:
	default:
		return &entity.ValidationError{
			Field:   "key_scheme",
			Message: fmt.Sprintf("must be %q or %q, got %q", KeySchemeID, KeySchemeTitle, p.KeyScheme),
		}
	}
	required := []struct{ field, value string }{
		{"card_selector", p.CardSelector},
		{"new_price_selector", p.NewPriceSelector},
		{"image_selector", p.ImageSelector},
		{"image_attr", p.ImageAttr},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &entity.ValidationError{Field: r.field, Message: "must not be empty"}
		}
	}
	if p.MaxPages < 1 {
		return &entity.ValidationError{Field: "max_pages", Message: "must be at least 1"}
	}
	return nil
}
