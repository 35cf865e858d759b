// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"strings"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

// Protocol markers the model must emit.
const (
	thoughtMarker     = "Thought:"
	actionMarker      = "Action:"
	actionInputMarker = "Action Input:"
	finalAnswerMarker = "Final Answer:"
)

// ParseOutcome is the structured result of one model step. Exactly one of
// Step or Malformed is meaningful: a malformed outcome carries the raw text
// and the reason so the recovery policy can act on shape, not on substring
// matching over error prose.
type ParseOutcome struct {
	Step      datatypes.AgentStep
	Raw       string
	Malformed bool
	Reason    string
}

// ParseModelOutput classifies one raw model completion.
//
// A completion is well formed if it contains either a final answer or an
// action whose input is a quoted string. Anything else is malformed and
// handed to the recovery policy.
func ParseModelOutput(raw string) ParseOutcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ParseOutcome{Raw: raw, Malformed: true, Reason: "empty model output"}
	}

	if idx := strings.Index(trimmed, finalAnswerMarker); idx >= 0 {
		answer := strings.TrimSpace(trimmed[idx+len(finalAnswerMarker):])
		if answer == "" {
			return ParseOutcome{Raw: raw, Malformed: true, Reason: "empty final answer"}
		}
		step := datatypes.NewFinalAnswer(answer)
		step.Thought = firstThought(trimmed[:idx])
		return ParseOutcome{Step: step, Raw: raw}
	}

	toolName, found := markerValue(trimmed, actionMarker)
	if !found {
		return ParseOutcome{Raw: raw, Malformed: true, Reason: "no action or final answer"}
	}
	if toolName == "" {
		return ParseOutcome{Raw: raw, Malformed: true, Reason: "action without tool name"}
	}

	inputLine, found := markerValue(trimmed, actionInputMarker)
	if !found {
		return ParseOutcome{Raw: raw, Malformed: true, Reason: "action without input"}
	}

	input, ok := unquote(inputLine)
	if !ok {
		return ParseOutcome{Raw: raw, Malformed: true, Reason: "action input not a quoted string"}
	}

	step := datatypes.NewAction(toolName, input)
	step.Thought = firstThought(trimmed)
	return ParseOutcome{Step: step, Raw: raw}
}

// LooksLikeAnswer reports whether a malformed completion already reads as a
// usable natural-language answer, and returns the cleaned text. Protocol
// fragments disqualify it; a bare thought with nothing after it does too.
func LooksLikeAnswer(raw string) (string, bool) {
	if strings.Contains(raw, actionMarker) || strings.Contains(raw, actionInputMarker) {
		return "", false
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, thoughtMarker) || strings.HasPrefix(trimmed, "Observation:") {
			continue
		}
		if trimmed != "" {
			kept = append(kept, trimmed)
		}
	}

	answer := strings.Join(kept, "\n")
	if len(answer) < 40 {
		return "", false
	}
	return answer, true
}

// markerValue returns the text after the first line starting with marker.
func markerValue(text, marker string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, marker) {
			return strings.TrimSpace(trimmed[len(marker):]), true
		}
	}
	return "", false
}

func firstThought(text string) string {
	value, _ := markerValue(text, thoughtMarker)
	return value
}

// unquote strips one matching pair of surrounding quotes. The protocol
// requires the argument quoted; unquoted input is rejected.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return strings.TrimSpace(s[1 : len(s)-1]), true
	}
	return "", false
}
