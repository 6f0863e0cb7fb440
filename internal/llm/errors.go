package llm

import "github.com/futurelens/futurelens/internal/llm/chat"

var (
	ErrGeneratorUnavailable = chat.ErrUnavailable
	ErrBadRequest           = chat.ErrBadRequest
)
