package card_test

import (
	"testing"
	"time"

	"weyfar-booking/internal/card"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func validVisaInput() card.Input {
	return card.Input{
		Number:     "4532015112830366",
		HolderName: "Jane O'Neill-Smith",
		CVV:        "123",
		Expiry:     "09/28",
	}
}

func TestLuhn(t *testing.T) {
	assert.True(t, card.Luhn("4532015112830366"))
	assert.False(t, card.Luhn("4532015112830367"))
	assert.False(t, card.Luhn(""))
	assert.False(t, card.Luhn("4532a15112830366"))
}

func TestDetectBrand(t *testing.T) {
	assert.Equal(t, card.BrandVisa, card.DetectBrand("4532015112830366"))
	assert.Equal(t, card.BrandMastercard, card.DetectBrand("5555555555554444"))
	assert.Equal(t, card.BrandAmex, card.DetectBrand("378282246310005"))
	assert.Equal(t, card.BrandDiscover, card.DetectBrand("6011111111111117"))
	assert.Equal(t, card.BrandRupay, card.DetectBrand("8112345678901234"))
	assert.Equal(t, card.BrandUnknown, card.DetectBrand("9999999999999999"))
}

func TestValidate_ValidVisa(t *testing.T) {
	masked, errs := card.Validate(validVisaInput(), testNow)
	require.Nil(t, errs)
	require.NotNil(t, masked)
	assert.Equal(t, "visa", masked.Brand)
	assert.Equal(t, "0366", masked.Last4)
	assert.Equal(t, 9, masked.ExpMonth)
	assert.Equal(t, 2028, masked.ExpYear)
}

func TestValidate_LuhnFailure(t *testing.T) {
	in := validVisaInput()
	in.Number = "4532015112830367"

	masked, errs := card.Validate(in, testNow)
	assert.Nil(t, masked)
	assert.Contains(t, errs, "number")
}

func TestValidate_AmexRules(t *testing.T) {
	in := card.Input{
		Number:     "378282246310005", // 15 digits
		HolderName: "John Doe",
		CVV:        "1234",
		Expiry:     "01/30",
	}

	masked, errs := card.Validate(in, testNow)
	require.Nil(t, errs)
	assert.Equal(t, "amex", masked.Brand)
	assert.Equal(t, "0005", masked.Last4)
}

func TestValidate_AmexPrefixWith16DigitsRejected(t *testing.T) {
	// Detected as amex from the 34 prefix, so 16 digits is the wrong length
	in := card.Input{
		Number:     "3412345678901234",
		HolderName: "John Doe",
		CVV:        "1234",
		Expiry:     "01/30",
	}

	masked, errs := card.Validate(in, testNow)
	assert.Nil(t, masked)
	assert.Contains(t, errs, "number")
}

func TestValidate_AmexRequiresFourDigitCVV(t *testing.T) {
	in := card.Input{
		Number:     "378282246310005",
		HolderName: "John Doe",
		CVV:        "123",
		Expiry:     "01/30",
	}

	masked, errs := card.Validate(in, testNow)
	assert.Nil(t, masked)
	assert.Contains(t, errs, "cvv")
}

func TestValidate_DetectedBrandOverridesSelection(t *testing.T) {
	in := validVisaInput()
	in.Brand = card.BrandMastercard // user picked the wrong brand

	masked, errs := card.Validate(in, testNow)
	require.Nil(t, errs)
	assert.Equal(t, "visa", masked.Brand)
}

func TestValidate_Expiry(t *testing.T) {
	cases := []struct {
		expiry string
		ok     bool
	}{
		{"09/28", true},
		{"03/26", true},  // current month is still valid
		{"02/26", false}, // last month
		{"12/25", false}, // past year
		{"13/30", false}, // month out of range
		{"09/46", true},  // exactly 20 years out
		{"09/47", false}, // beyond 20 years
		{"0928", false},  // missing separator
	}

	for _, tc := range cases {
		in := validVisaInput()
		in.Expiry = tc.expiry
		masked, errs := card.Validate(in, testNow)
		if tc.ok {
			assert.Nil(t, errs, "expiry %s should be accepted", tc.expiry)
			assert.NotNil(t, masked)
		} else {
			assert.Contains(t, errs, "expiry", "expiry %s should be rejected", tc.expiry)
		}
	}
}

func TestValidate_HolderName(t *testing.T) {
	bad := []string{"", "J", "J4ne Doe", "  "}
	for _, name := range bad {
		in := validVisaInput()
		in.HolderName = name
		_, errs := card.Validate(in, testNow)
		assert.Contains(t, errs, "holder_name", "name %q should be rejected", name)
	}
}

func TestValidate_NumberWithSpacesAccepted(t *testing.T) {
	in := validVisaInput()
	in.Number = "4532 0151 1283 0366"

	masked, errs := card.Validate(in, testNow)
	require.Nil(t, errs)
	assert.Equal(t, "0366", masked.Last4)
}
