package mq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParsePayload_FromStruct(t *testing.T) {
	// Payload присвоен структурой (путь publisher'а)
	want := StatusChangedPayload{
		ContainerType: "task",
		ContainerID:   uuid.New(),
		From:          "pending",
		To:            "planned",
		Flow:          "with-review",
	}
	msg := &Message{ID: uuid.New().String(), Type: MessageTypeStatusChanged, Payload: want}

	got, err := ParsePayload[StatusChangedPayload](msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestParsePayload_FromWire(t *testing.T) {
	// Payload после json.Unmarshal сообщения — map (путь consumer'а)
	id := uuid.New()
	body, err := json.Marshal(&Message{
		ID:   uuid.New().String(),
		Type: MessageTypeDependencyChanged,
		Payload: DependencyChangedPayload{
			DependencyID: id,
			FromTaskID:   uuid.New(),
			ToTaskID:     uuid.New(),
			Type:         "BLOCKS",
			Action:       DependencyActionCreated,
		},
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ParsePayload[DependencyChangedPayload](&msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DependencyID != id {
		t.Errorf("expected dependency id %s, got %s", id, got.DependencyID)
	}
	if got.Action != DependencyActionCreated {
		t.Errorf("expected created action, got %s", got.Action)
	}
}

func TestParsePayload_TypeMismatch(t *testing.T) {
	msg := &Message{
		ID:      uuid.New().String(),
		Type:    MessageTypeStatusChanged,
		Payload: map[string]any{"container_id": "not-a-uuid"},
	}

	if _, err := ParsePayload[StatusChangedPayload](msg); err == nil {
		t.Error("expected error for malformed payload")
	}
}
