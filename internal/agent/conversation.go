package agent

import (
	"fmt"

	"github.com/modelgate/gateagent/internal/model"
)

// Conversation is the ordered, append-only message log of one session.
// Rollback truncates back to a previously captured length; there is no
// other mutation. Message order is the transcript order and is replayed
// verbatim to the gateway on every model call.
type Conversation struct {
	messages []model.Message
}

// NewConversation creates the log, seeded with a system message when
// systemPrompt is non-empty. The system message, if present, is always
// first and is the only one.
func NewConversation(systemPrompt string) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.messages = append(c.messages, model.SystemMessage(systemPrompt))
	}
	return c
}

// Append adds msg to the end of the log. A tool-role message whose
// tool_call_id does not answer the most recent assistant message is a
// programming invariant violation, reported as an error rather than
// silently recorded.
func (c *Conversation) Append(msg model.Message) error {
	if msg.Role == model.RoleSystem && len(c.messages) > 0 {
		return fmt.Errorf("conversation state: system message must be first")
	}
	if msg.Role == model.RoleTool {
		if !c.answersLastAssistant(msg.ToolCallID) {
			return fmt.Errorf("conversation state: tool message %q answers no pending tool call", msg.ToolCallID)
		}
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *Conversation) answersLastAssistant(callID string) bool {
	for i := len(c.messages) - 1; i >= 0; i-- {
		switch c.messages[i].Role {
		case model.RoleAssistant:
			for _, call := range c.messages[i].ToolCalls {
				if call.ID == callID {
					return true
				}
			}
			return false
		case model.RoleTool:
			continue
		default:
			return false
		}
	}
	return false
}

// Snapshot captures the current length for a later Rollback.
func (c *Conversation) Snapshot() int {
	return len(c.messages)
}

// Rollback truncates the log back to a previously captured snapshot, so a
// failed turn does not retain partially-applied state.
func (c *Conversation) Rollback(snapshot int) {
	if snapshot < 0 || snapshot > len(c.messages) {
		return
	}
	c.messages = c.messages[:snapshot]
}

// Transcript returns a copy of the exact current log.
func (c *Conversation) Transcript() []model.Message {
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len is the current number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Reset drops everything except the system message, if one was set.
func (c *Conversation) Reset() {
	if len(c.messages) > 0 && c.messages[0].Role == model.RoleSystem {
		c.messages = c.messages[:1]
		return
	}
	c.messages = nil
}
