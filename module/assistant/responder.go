package assistant

import (
	"context"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/pkg/errors"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
)

const systemPrompt = "You are a helpful assistant inside a chat application. " +
	"Answer the user's latest message. Keep replies short and conversational."

// Responder turns a conversation history into the assistant's next reply.
// An empty reply with a nil error means "stay silent".
type Responder interface {
	Reply(ctx context.Context, history []chatmodel.Message, selfID string) (string, error)
}

// OpenAIResponder drives the reply through the OpenAI chat completions API.
type OpenAIResponder struct {
	client openai.Client
	model  string
}

func NewOpenAIResponder(apiKey, model string) *OpenAIResponder {
	return &OpenAIResponder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (r *OpenAIResponder) Reply(ctx context.Context, history []chatmodel.Message, selfID string) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(systemPrompt))
	for _, m := range history {
		if m.SenderID == selfID {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(r.model),
		Messages: msgs,
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
