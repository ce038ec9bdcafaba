package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// idemKeyVersion namespaces cache keys so a change to the key recipe never
// collides with entries written by an older build.
const idemKeyVersion = "v1"

// GenerateIdemKey derives a deterministic idempotency key from the fields
// that define a scoring call's identity: operation, provider, model, section,
// task, and the rendered prompts. Two identical learner submissions hash to
// the same key, which is what makes the success-only cache safe.
func GenerateIdemKey(req *Request) (string, error) {
	canonical := struct {
		Version      string         `json:"v"`
		Operation    OperationType  `json:"op"`
		Provider     string         `json:"provider"`
		Model        string         `json:"model"`
		Section      string         `json:"section"`
		QuestionType string         `json:"question_type"`
		SystemPrompt string         `json:"system_prompt"`
		UserPrompt   string         `json:"user_prompt"`
		MaxTokens    int64          `json:"max_tokens"`
		Temperature  float64        `json:"temperature"`
	}{
		Version:      idemKeyVersion,
		Operation:    req.Operation,
		Provider:     req.Provider,
		Model:        req.Model,
		Section:      string(req.Section),
		QuestionType: req.QuestionType,
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to marshal idempotency payload: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
