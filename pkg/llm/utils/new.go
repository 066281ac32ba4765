// Package llmutils is the llm utility package
package llmutils

import (
	"fmt"

	"github.com/foliostack/folio/pkg/llm"
	"github.com/foliostack/folio/pkg/llm/provider/ollama"
	"github.com/foliostack/folio/pkg/llm/provider/openai"
)

type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
}

func NewGenerator(o *NewGeneratorOpts) (llm.Generator, error) {
	switch o.ProviderType {
	case "openai":
		return openai.NewGenerator(openai.Config{
			BaseURL: o.TargetURL,
		})
	case "ollama":
		return ollama.NewGenerator(ollama.Config{
			BaseURL: o.TargetURL,
		})
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", o.ProviderType)
	}
}
