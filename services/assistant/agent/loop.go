// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agent contains the reasoning loop that drives one conversation
// turn: it alternates model steps and tool invocations until the model
// emits a final answer or the iteration budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
	"github.com/moviechat/moviechat/services/assistant/observability"
	"github.com/moviechat/moviechat/services/assistant/tools"
	"github.com/moviechat/moviechat/services/llm"
)

var agentTracer = otel.Tracer("moviechat.agent")

// MaxIterations bounds the think/act cycles of one turn. Exceeding it
// forces the deterministic fallback path, never an unbounded loop.
const MaxIterations = 5

// ErrIterationBudget is returned when the loop exhausts MaxIterations
// without reaching a final answer.
var ErrIterationBudget = errors.New("reasoning iteration budget exceeded")

// GenerationError wraps a failed model call. It is not recoverable inside
// the loop; the turn level converts it into the fallback apology.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("model generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsGenerationError reports whether err stems from a failed model call.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// correctiveObservation prefixes the observation of the corrective catalog
// search injected when a malformed step carries no usable answer, so the
// loop recovers the user's intent instead of crashing the turn.
const correctiveObservation = "Il passo precedente non rispettava il formato richiesto. " +
	"Ho eseguito una ricerca nel catalogo per recuperare la richiesta originale."

// Loop is the agent controller state machine.
//
// # Thread Safety
//
// Loop is safe for concurrent use; all per-turn state lives on the stack
// of Run.
type Loop struct {
	client   llm.LLMClient
	registry *Registry
}

// NewLoop creates a loop over the given model client and tool registry.
func NewLoop(client llm.LLMClient, registry *Registry) *Loop {
	return &Loop{client: client, registry: registry}
}

// Run drives one turn to completion.
//
// # Description
//
// Each cycle renders the prompt with the running scratch record, asks the
// model for one step, and either invokes the named tool (appending the
// observation verbatim) or returns the final answer. Malformed steps are
// recovered per a fixed policy: answer-like text is promoted to a final
// answer, anything else triggers one corrective catalog search.
//
// # Outputs
//
//   - string: The final answer, non-empty on nil error.
//   - error: ErrIterationBudget when the budget runs out, *GenerationError
//     when a model call fails. Tool failures do not fail the turn; their
//     error text becomes the observation.
func (l *Loop) Run(ctx context.Context, turn tools.TurnContext, input string) (string, error) {
	ctx, span := agentTracer.Start(ctx, "ReasoningLoop")
	defer span.End()

	// The stop sequence keeps the model from inventing its own observations.
	params := llm.GenerationParams{Stop: []string{"\nObservation:"}}

	var scratchpad strings.Builder
	correctiveUsed := false

	for iteration := 1; iteration <= MaxIterations; iteration++ {
		prompt, err := renderPrompt(l.registry, input, turn.History, scratchpad.String())
		if err != nil {
			return "", &GenerationError{Err: err}
		}

		output, err := l.client.Generate(ctx, prompt, params)
		if err != nil {
			observability.ReasoningIterations.Observe(float64(iteration))
			return "", &GenerationError{Err: err}
		}

		outcome := ParseModelOutput(output)
		if outcome.Malformed {
			slog.Warn("Malformed reasoning step", "iteration", iteration, "reason", outcome.Reason)

			if answer, ok := LooksLikeAnswer(outcome.Raw); ok {
				observability.MalformedStepTotal.WithLabelValues("promoted_answer").Inc()
				observability.ReasoningIterations.Observe(float64(iteration))
				return answer, nil
			}

			if correctiveUsed {
				// A second malformed step after correction will not improve.
				break
			}
			correctiveUsed = true
			observability.MalformedStepTotal.WithLabelValues("corrective_search").Inc()
			l.appendStep(ctx, &scratchpad, turn, datatypes.NewAction(tools.CatalogSearchToolName, stripUserTag(input)), correctiveObservation)
			continue
		}

		step := outcome.Step
		if step.Kind == datatypes.StepFinalAnswer {
			observability.ReasoningIterations.Observe(float64(iteration))
			slog.Info("Reasoning loop reached final answer", "iterations", iteration)
			return step.FinalAnswer, nil
		}

		l.appendStep(ctx, &scratchpad, turn, step, "")
	}

	observability.ReasoningIterations.Observe(float64(MaxIterations))
	return "", ErrIterationBudget
}

// appendStep runs the step's tool and appends the full think/act/observe
// record to the scratchpad. When note is non-empty it replaces the thought
// line (corrective injections have no model thought).
func (l *Loop) appendStep(ctx context.Context, scratchpad *strings.Builder, turn tools.TurnContext, step datatypes.AgentStep, note string) {
	observation := l.invoke(ctx, turn, step.Action)
	if note != "" {
		observation = note + "\n" + observation
	}

	if step.Thought != "" {
		fmt.Fprintf(scratchpad, "Thought: %s\n", step.Thought)
	}
	fmt.Fprintf(scratchpad, "Action: %s\n", step.Action.ToolName)
	fmt.Fprintf(scratchpad, "Action Input: %q\n", step.Action.Input)
	fmt.Fprintf(scratchpad, "Observation: %s\n", observation)
}

// invoke executes one tool call. Failures become observation text so the
// model can route around them; they never abort the turn.
func (l *Loop) invoke(ctx context.Context, turn tools.TurnContext, invocation *datatypes.ToolInvocation) string {
	tool, ok := l.registry.Lookup(invocation.ToolName)
	if !ok {
		observability.ToolInvocationTotal.WithLabelValues(invocation.ToolName, "unknown").Inc()
		return fmt.Sprintf("Strumento sconosciuto '%s'. Gli strumenti disponibili sono: %s",
			invocation.ToolName, strings.Join(l.registry.Names(), ", "))
	}

	result, err := tool.Run(ctx, turn, invocation.Input)
	if err != nil {
		observability.ToolInvocationTotal.WithLabelValues(tool.Name(), "error").Inc()
		slog.Error("Tool invocation failed", "tool", tool.Name(), "error", err)
		return fmt.Sprintf("Errore dello strumento %s: %v. Prova un approccio diverso.", tool.Name(), err)
	}

	observability.ToolInvocationTotal.WithLabelValues(tool.Name(), "ok").Inc()
	return result
}
