// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the assistant service.
//
// This file contains the conversation message type shared by the session
// store, the LLM clients and the agent, plus the request/response types
// for the chat endpoints.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// RoleUser marks a turn authored by the end user.
	RoleUser = "user"

	// RoleAssistant marks a turn authored by the assistant.
	RoleAssistant = "assistant"

	// RoleSystem marks an instruction message. Never stored in session
	// history, only assembled into LLM requests.
	RoleSystem = "system"
)

const (
	// MaxMessageContentBytes is the maximum size of a single message content.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxHistoryMessages bounds the history accepted in a single request.
	MaxHistoryMessages = 100
)

// chatValidate is the validator instance for chat datatypes.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks byte length (not rune count) so oversized payloads
// are rejected before they reach the LLM.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// Message is a single conversation turn in the standard chat format.
// Immutable once appended to a session.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,maxbytes"`
}

// ChatTurnRequest is the body for POST /v1/chat.
//
// # Fields
//
//   - UserId: Required. Stable identifier for the user; selects the session.
//   - Message: Required. The raw user input for this turn, max 32KB.
type ChatTurnRequest struct {
	Id        string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	UserId    string `json:"user_id" validate:"required,min=1,max=128"`
	Message   string `json:"message" validate:"required,maxbytes"`
}

// EnsureDefaults populates the request id and timestamp when the client
// did not supply them.
func (r *ChatTurnRequest) EnsureDefaults() {
	if r.Id == "" {
		r.Id = uuid.New().String()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// Validate validates the ChatTurnRequest fields after JSON binding.
func (r *ChatTurnRequest) Validate() error {
	return chatValidate.Struct(r)
}

// ChatTurnResponse is the body returned by POST /v1/chat. Every turn yields
// exactly one answer, even when the pipeline degraded internally.
type ChatTurnResponse struct {
	Id        string `json:"response_id"`
	UserId    string `json:"user_id"`
	Answer    string `json:"answer"`
	Timestamp int64  `json:"timestamp"`
}

// NewChatTurnResponse builds a response with a fresh id and timestamp.
func NewChatTurnResponse(userId, answer string) *ChatTurnResponse {
	return &ChatTurnResponse{
		Id:        uuid.New().String(),
		UserId:    userId,
		Answer:    answer,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ValidateMessage validates a single Message value.
func ValidateMessage(m Message) error {
	return chatValidate.Struct(m)
}
