package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/reloved/marketplace/internal/adapter/llm"
	"github.com/reloved/marketplace/internal/domain"
	"github.com/reloved/marketplace/internal/metrics"
)

// maxToolIterations bounds the tool loop per agent turn.
const maxToolIterations = 4

const agentSystemPrompt = `You are a negotiation assistant for a secondhand furniture marketplace.
You act on behalf of the current user, who may be selling items or making offers.
Use the tools to look up real state before answering; never invent negotiation IDs or prices.
Accepting an offer is final: it sells the item and closes all other negotiations on it.
For anything irreversible that the user has not explicitly asked for in this message, propose a plan with plan_actions instead of acting directly.
Keep replies short and concrete, quoting real amounts.`

// AgentChat handles one LLM-driven assistant turn. The model is given the
// conversation history plus a tool belt over the negotiation service and may
// chain up to maxToolIterations tool rounds before answering.
func (s *Service) AgentChat(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.ValidationError("message is required")
	}
	if s.llmClient == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "agent chat is not configured")
	}
	conv, err := s.ensureConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := s.recordChatMessage(ctx, conv.ConversationID, "user", req.Message, "", nil); err != nil {
		return nil, err
	}

	messages, err := s.agentHistory(ctx, conv.ConversationID)
	if err != nil {
		return nil, err
	}

	type toolTrace struct {
		Tool   string          `json:"tool"`
		Args   json.RawMessage `json:"args"`
		Result json.RawMessage `json:"result"`
	}
	var traces []toolTrace
	planID := ""
	reply := ""

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		resp, err := s.llmClient.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
			Model:    s.config.LLMModel,
			Messages: messages,
			Tools:    agentTools(),
		})
		if err != nil {
			metrics.LLMCalls.WithLabelValues("agent", "error").Inc()
			return nil, fmt.Errorf("agent completion failed: %w", err)
		}
		metrics.LLMCalls.WithLabelValues("agent", "ok").Inc()
		if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
			return nil, domain.NewError(domain.ErrCodeInternal, "empty completion from model")
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			reply = msg.Content
			break
		}

		messages = append(messages, *msg)
		for _, call := range msg.ToolCalls {
			result, callPlanID := s.executeAgentTool(ctx, userID, conv.ConversationID, call.Function.Name, call.Function.Arguments)
			if callPlanID != "" {
				planID = callPlanID
			}
			resultJSON, err := json.Marshal(result)
			if err != nil {
				resultJSON = []byte(`{"error":"failed to encode tool result"}`)
			}
			log.Printf("Agent tool %s for %s: %s", call.Function.Name, userID, string(resultJSON))
			traces = append(traces, toolTrace{
				Tool:   call.Function.Name,
				Args:   json.RawMessage(call.Function.Arguments),
				Result: resultJSON,
			})
			messages = append(messages, llm.ChatMessage{
				Role:       "tool",
				Name:       call.Function.Name,
				Content:    string(resultJSON),
				ToolCallID: call.ID,
			})
		}
	}

	if reply == "" {
		reply = "I ran several lookups but could not finish; please try a more specific request."
	}

	var toolPayload json.RawMessage
	if len(traces) > 0 {
		toolPayload, _ = json.Marshal(traces)
	}
	toolName := ""
	if len(traces) > 0 {
		toolName = traces[len(traces)-1].Tool
	}
	if err := s.recordChatMessage(ctx, conv.ConversationID, "assistant", reply, toolName, toolPayload); err != nil {
		return nil, err
	}

	return &domain.ChatResponse{
		ConversationID: conv.ConversationID,
		Reply:          reply,
		PlanID:         planID,
		ToolResults:    toolPayload,
	}, nil
}

// agentHistory rebuilds the model messages from the stored conversation,
// newest 20 turns, system prompt first.
func (s *Service) agentHistory(ctx context.Context, conversationID string) ([]llm.ChatMessage, error) {
	history, err := s.store.GetChatMessages(ctx, conversationID, 0)
	if err != nil {
		return nil, err
	}
	if len(history) > 20 {
		history = history[len(history)-20:]
	}
	messages := []llm.ChatMessage{{Role: "system", Content: agentSystemPrompt}}
	for _, msg := range history {
		if msg.Role != "user" && msg.Role != "assistant" {
			continue
		}
		if msg.Content == "" {
			continue
		}
		messages = append(messages, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return messages, nil
}

func agentTools() []llm.Tool {
	objectSchema := func(props map[string]interface{}, required ...string) map[string]interface{} {
		schema := map[string]interface{}{"type": "object", "properties": props}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	}
	stringProp := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}
	numberProp := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "number", "description": desc}
	}

	return []llm.Tool{
		{Type: "function", Function: llm.ToolFunction{
			Name:        "get_status",
			Description: "List every negotiation the user participates in, with status, current offer, and round.",
			Parameters:  objectSchema(map[string]interface{}{}),
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "list_offers",
			Description: "List active incoming offers on the user's own listings.",
			Parameters:  objectSchema(map[string]interface{}{}),
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "accept_offer",
			Description: "Accept the current offer of a negotiation. Final: sells the item. Only call when the user explicitly asked in this message.",
			Parameters: objectSchema(map[string]interface{}{
				"negotiation_id": stringProp("negotiation to accept"),
			}, "negotiation_id"),
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "decline_offer",
			Description: "Decline a negotiation. Only call when the user explicitly asked in this message.",
			Parameters: objectSchema(map[string]interface{}{
				"negotiation_id": stringProp("negotiation to decline"),
				"reason":         stringProp("optional reason shown to the other party"),
			}, "negotiation_id"),
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "counter_offer",
			Description: "Send a counter offer in a negotiation.",
			Parameters: objectSchema(map[string]interface{}{
				"negotiation_id": stringProp("negotiation to counter in"),
				"price":          numberProp("counter price in dollars"),
				"message":        stringProp("optional note to the other party"),
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "set only after the user explicitly confirmed an unusually low price or an out-of-turn counter",
				},
			}, "negotiation_id", "price"),
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "analyze_offers",
			Description: "Group the active offers on one of the user's items into priority, fair, and lowball buckets.",
			Parameters: objectSchema(map[string]interface{}{
				"item_id": stringProp("item to analyze"),
			}, "item_id"),
		}},
		{Type: "function", Function: llm.ToolFunction{
			Name:        "plan_actions",
			Description: "Propose a batch of negotiation actions for the user to confirm. Nothing executes until they confirm the returned plan.",
			Parameters: objectSchema(map[string]interface{}{
				"actions": map[string]interface{}{
					"type":        "array",
					"description": "actions to stage",
					"items": objectSchema(map[string]interface{}{
						"action":         stringProp("accept, decline, or counter"),
						"negotiation_id": stringProp("target negotiation"),
						"price":          numberProp("counter price, required for counter"),
						"message":        stringProp("optional note"),
					}, "action", "negotiation_id"),
				},
			}, "actions"),
		}},
	}
}

// executeAgentTool dispatches one tool call against the service. Errors come
// back as {"error": ...} payloads so the model can relay them.
func (s *Service) executeAgentTool(ctx context.Context, userID, conversationID, name, arguments string) (interface{}, string) {
	fail := func(err error) interface{} {
		return map[string]string{"error": err.Error()}
	}

	switch name {
	case "get_status":
		negs, err := s.ListUserNegotiations(ctx, userID)
		if err != nil {
			return fail(err), ""
		}
		return map[string]interface{}{"negotiations": negs}, ""

	case "list_offers":
		negs, err := s.ListUserNegotiations(ctx, userID)
		if err != nil {
			return fail(err), ""
		}
		var incoming []domain.Negotiation
		for _, neg := range negs {
			if neg.SellerID == userID && neg.Status == domain.NegotiationStatusActive && neg.CurrentOffer > 0 {
				incoming = append(incoming, neg)
			}
		}
		return map[string]interface{}{"offers": incoming}, ""

	case "accept_offer":
		var args struct {
			NegotiationID string `json:"negotiation_id"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fail(fmt.Errorf("bad arguments: %w", err)), ""
		}
		neg, err := s.Accept(ctx, args.NegotiationID, userID)
		if err != nil {
			return fail(err), ""
		}
		return map[string]interface{}{"negotiation": neg}, ""

	case "decline_offer":
		var args struct {
			NegotiationID string `json:"negotiation_id"`
			Reason        string `json:"reason"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fail(fmt.Errorf("bad arguments: %w", err)), ""
		}
		neg, err := s.Decline(ctx, args.NegotiationID, userID, args.Reason)
		if err != nil {
			return fail(err), ""
		}
		return map[string]interface{}{"negotiation": neg}, ""

	case "counter_offer":
		var args struct {
			NegotiationID string  `json:"negotiation_id"`
			Price         float64 `json:"price"`
			Message       string  `json:"message"`
			Force         bool    `json:"force"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fail(fmt.Errorf("bad arguments: %w", err)), ""
		}
		neg, offer, err := s.Counter(ctx, args.NegotiationID, userID, domain.OfferRequest{
			Price:   args.Price,
			Message: args.Message,
			Force:   args.Force,
		})
		if err != nil {
			return fail(err), ""
		}
		return map[string]interface{}{"negotiation": neg, "offer": offer}, ""

	case "analyze_offers":
		var args struct {
			ItemID string `json:"item_id"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fail(fmt.Errorf("bad arguments: %w", err)), ""
		}
		analysis, err := s.AnalyzeOffers(ctx, args.ItemID, userID)
		if err != nil {
			return fail(err), ""
		}
		return analysis, ""

	case "plan_actions":
		var args struct {
			Actions []domain.PlanAction `json:"actions"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fail(fmt.Errorf("bad arguments: %w", err)), ""
		}
		plan, err := s.CreatePlan(ctx, conversationID, userID, args.Actions)
		if err != nil {
			return fail(err), ""
		}
		return map[string]interface{}{
			"plan_id":    plan.PlanID,
			"expires_at": plan.ExpiresAt,
			"actions":    plan.Actions,
			"note":       "pending user confirmation",
		}, plan.PlanID
	}
	return map[string]string{"error": "unknown tool " + name}, ""
}
