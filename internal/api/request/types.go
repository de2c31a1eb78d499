package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// AccountHash accepts either a JSON number or a JSON string. Game clients
// send the hash as a 64-bit integer.
type AccountHash string

// UnmarshalJSON implements json.Unmarshaler
func (h *AccountHash) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*h = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = AccountHash(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("account_hash must be a number or string")
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return errors.New("account_hash must be an integer")
	}
	*h = AccountHash(n.String())
	return nil
}

// SetupRequest is the request body for linking an account to a display name
type SetupRequest struct {
	AccountHash AccountHash `json:"account_hash"`
	DisplayName string      `json:"display_name"`
}
