package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youmna-rabie/chat-relay/internal/config"
)

func TestNew_SelectsClientByKind(t *testing.T) {
	tests := []struct {
		kind string
		want Client
	}{
		{config.ProviderOpenAI, &OpenAIChatClient{}},
		{config.ProviderOpenAIAssistant, &PollingClient{}},
		{config.ProviderAnthropic, &AnthropicClient{}},
		{config.ProviderEcho, &EchoClient{}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			client, err := New(config.ProviderConfig{Kind: tt.kind, APIKey: "sk-test", AssistantID: "asst_1"}, testOptions(0))
			require.NoError(t, err)
			assert.IsType(t, tt.want, client)
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(config.ProviderConfig{Kind: "llama"}, Options{})
	assert.Error(t, err)
}
