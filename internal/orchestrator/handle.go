package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handle dispatches one inbound payload by its action field and returns the
// response value to serialize. An absent action defaults to generate.
func (o *Orchestrator) Handle(ctx context.Context, payload json.RawMessage) any {
	var envelope struct {
		Action string `json:"action"`
		JobID  string `json:"job_id"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return ErrorResponse{Error: "invalid payload: " + err.Error()}
		}
	}
	action := envelope.Action
	if action == "" {
		action = "generate"
	}

	switch action {
	case "generate":
		var req GenerateRequest
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return ErrorResponse{Error: "invalid payload: " + err.Error()}
			}
		}
		return o.Generate(ctx, req)
	case "status":
		return o.Status(ctx, envelope.JobID)
	case "get_output":
		return o.GetOutput(ctx, envelope.JobID)
	default:
		return ErrorResponse{Error: fmt.Sprintf("Unknown action: %s", action)}
	}
}
