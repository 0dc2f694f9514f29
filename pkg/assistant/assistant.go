// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package assistant drives one conversational turn against an
// OpenAI-compatible chat model, executing the function calls the model
// makes and acting on the directives the functions return.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/voxkit/websearch/pkg/core/config"
	"github.com/voxkit/websearch/pkg/functions"
)

// MaxToolRounds caps how many times the model may call functions in one turn.
const MaxToolRounds = 3

// DefaultSystemPrompt is used when none is set.
const DefaultSystemPrompt = "You are a helpful voice assistant. Keep answers short and conversational. " +
	"Call the available functions when the user asks about current events or facts you cannot know."

// ErrTooManyToolRounds is returned when the model keeps calling functions.
var ErrTooManyToolRounds = errors.New("assistant: too many function call rounds")

// ChatClient is the subset of the OpenAI chat completions service we use.
type ChatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Agent answers user messages, using registered functions as tools.
type Agent struct {
	chat         ChatClient
	model        string
	systemPrompt string
	functions    *functions.Registry
	logger       *slog.Logger
}

// New creates an Agent on top of chat.
func New(chat ChatClient, model string, fns *functions.Registry, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		chat:         chat,
		model:        model,
		systemPrompt: DefaultSystemPrompt,
		functions:    fns,
		logger:       logger,
	}
}

// NewOpenAI creates an Agent backed by the official OpenAI Go SDK. The
// endpoint may point at any OpenAI-compatible server (Ollama, vLLM, ...).
func NewOpenAI(cfg config.LLMConfig, fns *functions.Registry, logger *slog.Logger) *Agent {
	opts := []option.RequestOption{}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		// Local backends ignore the key but the SDK requires one.
		opts = append(opts, option.WithAPIKey("dummy"))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(opts...)
	return New(&client.Chat.Completions, cfg.Model, fns, logger)
}

// WithSystemPrompt replaces the system prompt.
func (a *Agent) WithSystemPrompt(prompt string) *Agent {
	a.systemPrompt = prompt
	return a
}

// Reply runs one user turn and returns the text to speak back.
func (a *Agent) Reply(ctx context.Context, conn *functions.Conn, text string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(a.systemPrompt),
		openai.UserMessage(text),
	}
	tools := a.functions.Tools()

	for round := 0; round <= MaxToolRounds; round++ {
		params := openai.ChatCompletionNewParams{
			Model:    shared.ChatModel(a.model),
			Messages: messages,
		}
		// The last round withholds tools so the model has to answer.
		if round < MaxToolRounds && len(tools) > 0 {
			params.Tools = tools
		}

		completion, err := a.chat.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}

		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, assistantToolCalls(msg))
		for _, tc := range msg.ToolCalls {
			resp := a.functions.Call(ctx, conn, tc.Function.Name, json.RawMessage(tc.Function.Arguments))
			a.logger.Info("Function called",
				"name", tc.Function.Name,
				"action", resp.Action.String(),
				"round", round)

			switch resp.Action {
			case functions.ActionResponse:
				return resp.Response, nil
			case functions.ActionNone:
				messages = append(messages, openai.ToolMessage(firstNonEmpty(resp.Result, "done"), tc.ID))
			default:
				messages = append(messages, openai.ToolMessage(resp.Result, tc.ID))
			}
		}
	}
	return "", ErrTooManyToolRounds
}

// assistantToolCalls echoes the model's tool calls back into the history.
func assistantToolCalls(msg openai.ChatCompletionMessage) openai.ChatCompletionMessageParamUnion {
	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	assistantMsg := &openai.ChatCompletionAssistantMessageParam{
		ToolCalls: toolCalls,
	}
	if msg.Content != "" {
		assistantMsg.Content.OfString = openai.String(msg.Content)
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: assistantMsg}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
