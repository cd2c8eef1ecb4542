package validators

import (
	"net/http"

	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
)

// FormValue reads one form field; the storefront posts checkout as
// application/x-www-form-urlencoded.
func FormValue(r *http.Request, name string) string {
	return r.PostFormValue(name)
}

// ParseForm parses the request form, translating malformed bodies into a
// validation error.
func ParseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}
	return nil
}
