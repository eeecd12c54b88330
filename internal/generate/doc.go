// Package generate turns a source question into a validated quiz item.
//
// It holds the three stages that talk to the generation provider:
//
//   - Classifier places the source question in the subject and category
//     taxonomy and picks the anchor question.
//   - ComposePrompt builds the rephrasing instruction.
//   - Client calls the provider, extracts the first balanced JSON object
//     from the reply, parses and validates it, and retries failed attempts
//     with a constant backoff.
//
// Extraction failures are reported in two stages, ErrNoObject when no
// candidate span exists and ErrMalformedPayload when the span does not
// parse, followed by ErrInvalidPayload when a parsed object fails
// validation.
package generate
