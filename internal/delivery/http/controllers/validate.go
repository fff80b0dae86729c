package controllers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"eventreservation/internal/delivery/http/helpers"
)

// Column widths of the reservations and emails tables, in characters.
const (
	maxNameLength    = 100
	maxEmailLength   = 100
	maxAddressLength = 255
	dateLayout       = "2006-01-02"
)

var (
	// uuidV4Regex matches a canonical version 4 UUID.
	uuidV4Regex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// nameRegex allows letters (any script), spaces, apostrophes, commas, hyphens and periods.
	nameRegex = regexp.MustCompile(`^[\p{L} ',.-]+$`)

	mobileRegex = regexp.MustCompile(`^9\d{2} \d{3} \d{4}$`)
)

var angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// storedAddress is the address as it is persisted: trimmed, with angle brackets escaped.
// Length limits apply to this form.
func storedAddress(raw string) string {
	return angleEscaper.Replace(strings.TrimSpace(raw))
}

// pathID parses a positive integer path value. On failure it writes a 400 and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// pathToken reads the reservation token path value. On failure it writes a 400 and returns false.
func pathToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.PathValue("token")
	if !uuidV4Regex.MatchString(token) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid reservation token")
		return "", false
	}
	return strings.ToLower(token), true
}
