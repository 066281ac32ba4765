package llm

// Credentials is the caller-supplied credential forwarded to providers on
// every call. It is untrusted external configuration: validation happens at
// the capability boundary, not here.
type Credentials struct {
	// APIKey authenticates against the provider. May be empty for
	// providers that need none (e.g. a local Ollama instance).
	APIKey string
}

// GenerateRequest is a provider-agnostic streaming generation request.
type GenerateRequest struct {
	// Model to generate with. Chosen per request, never a compile-time
	// constant.
	Model string

	// Messages in the order they should be presented to the model.
	Messages []Message

	// Credentials for this call.
	Credentials Credentials
}
