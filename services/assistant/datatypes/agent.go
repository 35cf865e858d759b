// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// ToolInvocation is a request produced by the reasoning step to execute one
// registered tool with a single textual argument.
type ToolInvocation struct {
	ToolName string `json:"tool"`
	Input    string `json:"input"`
}

// AgentStepKind discriminates the AgentStep variant.
type AgentStepKind string

const (
	StepThought     AgentStepKind = "thought"
	StepAction      AgentStepKind = "action"
	StepFinalAnswer AgentStepKind = "final_answer"
)

// AgentStep is one step of the reasoning trace: a thought, a tool action,
// or the terminal final answer. Exactly one of the payload fields is
// meaningful for a given kind.
type AgentStep struct {
	Kind        AgentStepKind   `json:"kind"`
	Thought     string          `json:"thought,omitempty"`
	Action      *ToolInvocation `json:"action,omitempty"`
	Observation string          `json:"observation,omitempty"`
	FinalAnswer string          `json:"final_answer,omitempty"`
}

// NewThought builds a thought step.
func NewThought(text string) AgentStep {
	return AgentStep{Kind: StepThought, Thought: text}
}

// NewAction builds an action step for the given tool and argument.
func NewAction(tool, input string) AgentStep {
	return AgentStep{
		Kind:   StepAction,
		Action: &ToolInvocation{ToolName: tool, Input: input},
	}
}

// NewFinalAnswer builds the terminal step.
func NewFinalAnswer(text string) AgentStep {
	return AgentStep{Kind: StepFinalAnswer, FinalAnswer: text}
}
