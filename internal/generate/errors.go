package generate

import "errors"

var (
	// ErrNoObject is returned when a reply contains no balanced {...} span
	ErrNoObject = errors.New("no JSON object in reply")

	// ErrMalformedPayload is returned when the extracted span does not parse
	ErrMalformedPayload = errors.New("malformed JSON payload")

	// ErrInvalidPayload is returned when a parsed payload fails validation
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrGenerationFailed is returned after every attempt has failed
	ErrGenerationFailed = errors.New("generation failed")

	// ErrClassificationFailed is returned when no classification could be parsed
	ErrClassificationFailed = errors.New("classification failed")

	// ErrEmptyPrompt is returned when there is nothing to send
	ErrEmptyPrompt = errors.New("empty prompt")
)
