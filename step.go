package goJourney

import (
	"encoding/json"
)

// Reserved payload keys. authId is the server's continuation token and the
// only payload field the engine rewrites during a merge; sessionToken is
// present on the completion payload only.
const (
	payloadKeyAuthID       = "authId"
	payloadKeySessionToken = "sessionToken"
)

// stepTypeLoginSuccess is the response type marking journey completion.
const stepTypeLoginSuccess = "LoginSuccess"

// Step is one round of the journey: the prompts the server wants completed
// and the accumulated body that will be round-tripped back to it.
//
// Two steps carrying the same non-empty Stage are presumed to be the same
// logical form redisplayed; the retry protocol merges state across such a
// pair so the user's in-progress input survives a transient failure.
//
//	Docs: docs/journey.md
type Step struct {
	// Type is the server's response type, e.g. "LoginSuccess" at completion.
	Type string `json:"type,omitempty"`

	// Stage is the server-assigned identifier of the current form.
	Stage string `json:"stage,omitempty"`

	// Callbacks are the prompts to render. Opaque to the engine.
	Callbacks []Callback `json:"callbacks,omitempty"`

	// Payload is the structured request/response body. The engine enriches
	// but never interprets its shape beyond the reserved keys.
	Payload map[string]any `json:"payload,omitempty"`

	// SessionToken is the JSON-encoded session token, present only on the
	// completion signal.
	SessionToken string `json:"sessionToken,omitempty"`
}

// ParseStep decodes raw step data received from the transport. This is the
// single deserialization point: past it the engine operates on structured
// values only.
func ParseStep(raw json.RawMessage) (*Step, error) {
	if len(raw) == 0 {
		return nil, ErrStepMalformed
	}

	var step Step
	if err := json.Unmarshal(raw, &step); err != nil {
		return nil, ErrStepMalformed
	}
	if step.Payload == nil {
		step.Payload = map[string]any{}
	}
	return &step, nil
}

// Complete reports whether the step is the journey completion signal.
func (s *Step) Complete() bool {
	return s != nil && s.Type == stepTypeLoginSuccess
}

// AuthID returns the continuation token threaded through the payload, or ""
// when absent.
func (s *Step) AuthID() string {
	if s == nil {
		return ""
	}
	id, _ := s.Payload[payloadKeyAuthID].(string)
	return id
}

// EncodePayload serializes the step payload for submission. This is the
// single serialization point on the outbound path.
func (s *Step) EncodePayload() ([]byte, error) {
	if s == nil || s.Payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.Payload)
}

// Clone deep-copies the step. Callback slices share the underlying raw
// bytes; callbacks are immutable pass-through values.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	out := &Step{
		Type:         s.Type,
		Stage:        s.Stage,
		SessionToken: s.SessionToken,
		Payload:      clonePayload(s.Payload),
	}
	if s.Callbacks != nil {
		out.Callbacks = make([]Callback, len(s.Callbacks))
		copy(out.Callbacks, s.Callbacks)
	}
	return out
}

// mergeSteps reconciles a retried step with the context recorded before the
// failed submission. When the stages match, the previous callbacks and
// payload win so the user's input is preserved, except the retried step's
// authId which must win over the stale continuation token. When stages
// differ the retried step is used as-is.
func mergeSteps(previous, retried *Step) *Step {
	if previous == nil || retried == nil {
		return retried
	}
	if previous.Stage != retried.Stage {
		return retried
	}

	merged := previous.Clone()
	merged.Type = retried.Type
	merged.SessionToken = retried.SessionToken
	if id, ok := retried.Payload[payloadKeyAuthID]; ok {
		merged.Payload[payloadKeyAuthID] = id
	} else {
		delete(merged.Payload, payloadKeyAuthID)
	}
	return merged
}

func clonePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return clonePayload(t)
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}
