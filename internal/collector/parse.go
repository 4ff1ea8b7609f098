package collector

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"BullionSentinel/internal/model"
)

// QuoteFields names the feed keys holding each instrument and its price field.
type QuoteFields struct {
	SilverCode string
	GoldCode   string
	Field      string
}

// ParseQuote extracts the silver and gold prices from a feed document of the
// shape {"<code>": {"<field>": <number or string>}, ...}. Other keys are ignored.
func ParseQuote(body []byte, fields QuoteFields) (model.Quote, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return model.Quote{}, fmt.Errorf("decode feed: %w", err)
	}
	silver, err := readPrice(doc, fields.SilverCode, fields.Field)
	if err != nil {
		return model.Quote{}, err
	}
	gold, err := readPrice(doc, fields.GoldCode, fields.Field)
	if err != nil {
		return model.Quote{}, err
	}
	return model.Quote{Silver: silver, Gold: gold}, nil
}

func readPrice(doc map[string]json.RawMessage, code, field string) (float64, error) {
	raw, ok := doc[code]
	if !ok {
		return 0, fmt.Errorf("feed: missing instrument %q", code)
	}
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return 0, fmt.Errorf("feed: decode %q: %w", code, err)
	}
	v, ok := entry[field]
	if !ok {
		return 0, fmt.Errorf("feed: %q has no %q field", code, field)
	}
	price, err := parseNumber(v)
	if err != nil {
		return 0, fmt.Errorf("feed: %s.%s: %w", code, field, err)
	}
	return price, nil
}

// parseNumber accepts a JSON number or a numeric string, including the
// Turkish "2.448,90" form.
func parseNumber(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		s = normalizeNumber(str)
	}
	if s == "" || s == "null" {
		return 0, fmt.Errorf("empty value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	f, _ := d.Float64()
	return f, nil
}

func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma < 0:
		return s
	case comma > dot:
		// Decimal comma, dots group thousands.
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	default:
		// Decimal dot, commas group thousands.
		return strings.ReplaceAll(s, ",", "")
	}
}
