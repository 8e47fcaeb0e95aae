package licensing

import (
	"encoding/base64"
	"strconv"
)

// GenerateKey builds the license key for an owner. The sequence number is
// appended to the phrase from the second issuance onwards.
func GenerateKey(username, phrase string, sequence int) string {
	raw := username + ":" + phrase
	if sequence > 1 {
		raw += strconv.Itoa(sequence)
	}
	return base64.StdEncoding.EncodeToString([]byte(raw))
}
