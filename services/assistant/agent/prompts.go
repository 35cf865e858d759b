// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/moviechat/moviechat/services/assistant/datatypes"
)

// reactPromptText is the fixed controller instruction. The think/act/observe
// format and the availability policy (never claim a title is on Netflix
// without a catalog hit) are both enforced here, in the instruction text.
const reactPromptText = `You are the official Netflix movie assistant that helps users find films.
You have all the information about Netflix films availability from the database.
Never search for Netflix film availability outside the database. If a film is not in the database, it is not available on Netflix.
If movie_database_search gives some info about a film, it means the film is in the database.
Never use emojis.

Available tools:
{tools}

Tool Names: {tool_names}

CRITICAL: You MUST follow the format EXACTLY. Each step must be on a new line.

FORMAT RULES:
1. Always start with "Thought:" on its own line
2. If using a tool, next line must be "Action:" followed by the exact tool name
3. Next line must be "Action Input:" followed by the input in quotes
4. Wait for "Observation:" (provided by system)
5. Continue with new "Thought:" or provide "Final Answer:"

EXAMPLE FORMAT:
Thought: I need to search for tension movies in the database
Action: movie_database_search
Action Input: "tension thriller movies"
Observation: [tool will provide output here]
Thought: Based on the results, I can now provide recommendations
Final Answer: Ecco alcuni film di tensione che potrebbero interessarti...

INSTRUCTIONS:
- Extract user_id from [USER_ID: xxx] if present
- Check user_conversation_history when personalization is relevant
- Always respond in Italian in the Final Answer
- Include Netflix links when available
- Avoid spoilers
- Availability comes ONLY from movie_database_search results

Question: {input}
Chat History: {chat_history}

{agent_scratchpad}`

var reactPrompt = prompts.PromptTemplate{
	Template:       reactPromptText,
	InputVariables: []string{"tools", "tool_names", "input", "chat_history", "agent_scratchpad"},
	TemplateFormat: prompts.TemplateFormatFString,
}

// renderPrompt produces the full prompt for one reasoning step.
func renderPrompt(reg *Registry, input string, history []datatypes.Message, scratchpad string) (string, error) {
	rendered, err := reactPrompt.Format(map[string]any{
		"tools":            reg.Describe(),
		"tool_names":       strings.Join(reg.Names(), ", "),
		"input":            input,
		"chat_history":     renderHistory(history),
		"agent_scratchpad": scratchpad,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format reasoning prompt: %w", err)
	}
	return rendered, nil
}

func renderHistory(history []datatypes.Message) string {
	if len(history) == 0 {
		return "(nessuna conversazione precedente)"
	}

	var b strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case datatypes.RoleUser:
			fmt.Fprintf(&b, "Utente: %s\n", msg.Content)
		case datatypes.RoleAssistant:
			fmt.Fprintf(&b, "Assistente: %s\n", msg.Content)
		}
	}
	return b.String()
}
