package testutils

import (
	"context"
	"fmt"

	"github.com/recaplabs/recap/pkg/llm"
)

// MockLLM is a scripted completion capability that records every prompt it
// receives.
type MockLLM struct {
	// Response is returned for every call unless Err is set.
	Response string

	// Err, when set, is returned by every call.
	Err error

	// Prompts records the prompts in call order.
	Prompts []string
}

// Call returns the MockLLM as an llm.CallFunc.
func (m *MockLLM) Call() llm.CallFunc {
	return func(_ context.Context, prompt string) (string, error) {
		m.Prompts = append(m.Prompts, prompt)
		if m.Err != nil {
			return "", fmt.Errorf("mock llm: %w", m.Err)
		}
		return m.Response, nil
	}
}
