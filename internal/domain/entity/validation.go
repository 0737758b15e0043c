package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// ValidateURL validates the format of a catalog or media URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a valid host.
// The field name is used in the returned ValidationError.
func ValidateURL(field, rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: field, Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("malformed URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: field, Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: field, Message: "URL must have a valid host"}
	}

	return nil
}

// ValidateAttributes checks that an extracted entry can be stored and delivered.
// The new price must follow the price grammar and the image must be an absolute URL.
func ValidateAttributes(a Attributes, freeToken string) error {
	if !IsPrice(a.NewPrice, freeToken) {
		return &ValidationError{Field: "new_price", Message: fmt.Sprintf("%q is not a price", a.NewPrice)}
	}
	return ValidateURL("image_url", a.ImageURL)
}
