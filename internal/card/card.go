package card

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"weyfar-booking/internal/models"
)

type Brand string

const (
	BrandVisa       Brand = "visa"
	BrandMastercard Brand = "mastercard"
	BrandAmex       Brand = "amex"
	BrandDiscover   Brand = "discover"
	BrandRupay      Brand = "rupay"
	BrandUnknown    Brand = "unknown"
)

// The furthest expiry year a card may carry.
const maxExpiryYears = 20

// Input is the raw card form as entered on the payment step. It never leaves
// this package except as a MaskedCard.
type Input struct {
	Number     string
	HolderName string
	CVV        string
	Expiry     string // MM/YY
	Brand      Brand  // user-selected; overridden by prefix detection
}

type brandRule struct {
	brand   Brand
	prefix  *regexp.Regexp
	lengths []int
	cvvLen  int
}

// Detection order matters where prefixes overlap (65 is both discover and
// rupay); discover is checked first, matching upstream behavior.
var brandRules = []brandRule{
	{BrandAmex, regexp.MustCompile(`^3[47]`), []int{15}, 4},
	{BrandVisa, regexp.MustCompile(`^4`), []int{16}, 3},
	{BrandMastercard, regexp.MustCompile(`^(5[1-5]|2[2-7])`), []int{16}, 3},
	{BrandDiscover, regexp.MustCompile(`^(6011|64[4-9]|65)`), []int{16}, 3},
	{BrandRupay, regexp.MustCompile(`^(508|60|81|82)`), []int{16}, 3},
}

var holderNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z '\-]+$`)

// DetectBrand identifies the card brand from the number prefix. The detected
// brand always wins over whatever the user selected.
func DetectBrand(number string) Brand {
	digits := normalizeNumber(number)
	for _, rule := range brandRules {
		if rule.prefix.MatchString(digits) {
			return rule.brand
		}
	}
	return BrandUnknown
}

// Luhn reports whether the digit string passes the Luhn checksum.
func Luhn(number string) bool {
	digits := normalizeNumber(number)
	if digits == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Validate checks the full card form and returns the masked payload on
// success, or a field -> message map on failure. Raw PAN and CVV are
// discarded here; only brand and last four digits survive.
func Validate(in Input, now time.Time) (*models.MaskedCard, map[string]string) {
	errs := make(map[string]string)

	digits := normalizeNumber(in.Number)
	brand := DetectBrand(digits)
	if brand == BrandUnknown {
		errs["number"] = "Unrecognized card number"
	}

	var rule brandRule
	for _, r := range brandRules {
		if r.brand == brand {
			rule = r
			break
		}
	}

	if brand != BrandUnknown {
		if !lengthAllowed(rule.lengths, len(digits)) {
			errs["number"] = fmt.Sprintf("%s card number must be %d digits", brand, rule.lengths[0])
		} else if !Luhn(digits) {
			errs["number"] = "Invalid card number"
		}

		if len(in.CVV) != rule.cvvLen || !allDigits(in.CVV) {
			errs["cvv"] = fmt.Sprintf("CVV must be %d digits", rule.cvvLen)
		}
	}

	name := strings.TrimSpace(in.HolderName)
	if len(name) < 2 || !holderNameRe.MatchString(name) {
		errs["holder_name"] = "Cardholder name must be at least 2 letters"
	}

	expMonth, expYear, expErr := parseExpiry(in.Expiry, now)
	if expErr != "" {
		errs["expiry"] = expErr
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &models.MaskedCard{
		Brand:      string(brand),
		Last4:      digits[len(digits)-4:],
		HolderName: name,
		ExpMonth:   expMonth,
		ExpYear:    expYear,
	}, nil
}

func parseExpiry(expiry string, now time.Time) (int, int, string) {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return 0, 0, "Expiry must be in MM/YY format"
	}

	month, errM := strconv.Atoi(parts[0])
	year, errY := strconv.Atoi(parts[1])
	if errM != nil || errY != nil || month < 1 || month > 12 {
		return 0, 0, "Expiry must be in MM/YY format"
	}
	year += 2000

	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return 0, 0, "Card has expired"
	}
	if year > now.Year()+maxExpiryYears {
		return 0, 0, fmt.Sprintf("Expiry year cannot be more than %d years out", maxExpiryYears)
	}
	return month, year, ""
}

func lengthAllowed(lengths []int, n int) bool {
	for _, l := range lengths {
		if n == l {
			return true
		}
	}
	return false
}

func normalizeNumber(number string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
