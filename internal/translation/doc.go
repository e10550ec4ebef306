// Package translation builds chat-completion requests for a translation,
// sends them to the configured endpoint and decodes the streamed or
// single-body responses. The wire schema is the OpenAI chat-completion
// contract as modelled by go-openai.
package translation
