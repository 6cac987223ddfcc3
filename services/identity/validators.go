package identity

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/tolgakaban/lgstakip/core"
)

const (
	pwdMinLen = 8
	pwdMaxSim = 0.7
)

var (
	pwdTooShortText = "password is too short"
	pwdAllNumText   = "password cannot be entirely numeric"
	pwdAttrSimText  = "password is too similar to the email or name"
	pwdNoSpaceText  = "password cannot contain spaces"
)

// validatePassword enforces the password policy: minimum length, not all
// numeric, no spaces and no close similarity to the user's own attributes.
func validatePassword(pwd, email, name string) error {
	reportErr := func(text string) error {
		return core.NewValidationError(errors.New(text), core.FieldError{Field: "password", Error: text})
	}

	if len(pwd) < pwdMinLen {
		return reportErr(pwdTooShortText)
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return reportErr(pwdNoSpaceText)
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(pwd) {
		return reportErr(pwdAllNumText)
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	if getRatio(lpwd, strings.ToLower(email)) >= pwdMaxSim ||
		getRatio(lpwd, strings.ToLower(name)) >= pwdMaxSim {
		return reportErr(pwdAttrSimText)
	}
	return nil
}
