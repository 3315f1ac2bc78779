package bootstrap

import (
	"fmt"

	"github.com/wolfman30/nail-studio-api/internal/chat"
	appconfig "github.com/wolfman30/nail-studio-api/internal/config"
)

// BuildChatUpstream returns the upstream named by CHAT_PROVIDER. Missing
// credentials are not an error here; the chat handler reports them per request.
// bedrock is only used when CHAT_PROVIDER is bedrock.
func BuildChatUpstream(cfg *appconfig.Config, bedrock chat.BedrockConverseAPI) (chat.Upstream, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	switch cfg.ChatProvider {
	case "", "glm":
		return chat.NewHTTPUpstream(chat.HTTPConfig{
			APIKey:  cfg.GLMAPIKey,
			URL:     cfg.GLMAPIURL,
			Model:   cfg.GLMModel,
			Timeout: cfg.ChatUpstreamTimeout,
		}), nil
	case "gemini":
		return chat.NewGeminiUpstream(chat.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}), nil
	case "bedrock":
		return chat.NewBedrockUpstream(bedrock, chat.BedrockConfig{
			ModelID: cfg.BedrockModelID,
			Region:  cfg.AWSRegion,
		}), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown chat provider %q", cfg.ChatProvider)
	}
}
