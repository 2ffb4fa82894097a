package llm

import "errors"

var (
	ErrUnknownProvider = errors.New("unknown model provider")
	ErrInvalidSpec     = errors.New("invalid model spec")
	ErrModelNotFound   = errors.New("model not found")
	ErrEmptyModelName  = errors.New("model name is empty")
	ErrModelExists     = errors.New("model already registered")
	ErrStructured      = errors.New("structured output failed")
	ErrNoToolSupport   = errors.New("model does not support tools")
)
