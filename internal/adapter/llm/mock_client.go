package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient is a scriptable LLMClient for tests and offline mode. Responses
// are consumed in FIFO order; when the queue is empty it falls back to a
// canned text reply.
type MockClient struct {
	mu    sync.Mutex
	queue []*ChatCompletionResponse

	// Requests records every request received, newest last.
	Requests []*ChatCompletionRequest
}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// EnqueueText queues a plain assistant reply.
func (m *MockClient) EnqueueText(content string) {
	m.enqueue(&ChatMessage{Role: "assistant", Content: content}, "stop")
}

// EnqueueToolCall queues a response in which the model selects a tool.
func (m *MockClient) EnqueueToolCall(name, arguments string) {
	m.enqueue(&ChatMessage{
		Role: "assistant",
		ToolCalls: []ToolCall{{
			ID:   fmt.Sprintf("call_%d", time.Now().UnixNano()),
			Type: "function",
			Function: ToolCallFunction{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}, "tool_calls")
}

func (m *MockClient) enqueue(msg *ChatMessage, finishReason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Choices: []Choice{{
			Index:        0,
			Message:      msg,
			FinishReason: finishReason,
		}},
		Usage: &Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	})
}

// CreateChatCompletion returns the next queued response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		resp.Model = req.Model
		return resp, nil
	}

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{{
			Index: 0,
			Message: &ChatMessage{
				Role:    "assistant",
				Content: "I'm here to help with your listings and offers.",
			},
			FinishReason: "stop",
		}},
		Usage: &Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	}, nil
}
