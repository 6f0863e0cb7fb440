package agent

import "errors"

// ErrMalformedPayload indicates the generator returned text that could not be
// parsed into the expected record shape.
var ErrMalformedPayload = errors.New("malformed generation payload")
