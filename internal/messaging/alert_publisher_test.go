package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

func TestBuildMessages(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	alerts := []domain.Alert{
		{ID: "a1", SKUID: "MED-001", Location: "North", Priority: domain.PriorityCritical, CreatedAt: created},
		{ID: "a2", SKUID: "FOOD-002", Location: "South", Priority: domain.PriorityLow, CreatedAt: created},
	}

	msgs, err := buildMessages(alerts)
	if err != nil {
		t.Fatalf("buildMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if string(msgs[0].Key) != "North/MED-001" {
		t.Errorf("key = %s", msgs[0].Key)
	}
	if !msgs[0].Time.Equal(created) {
		t.Errorf("time = %v", msgs[0].Time)
	}
	if string(msgs[1].Headers[1].Value) != "LOW" {
		t.Errorf("priority header = %s", msgs[1].Headers[1].Value)
	}

	var decoded domain.Alert
	if err := json.Unmarshal(msgs[0].Value, &decoded); err != nil {
		t.Fatalf("payload is not an alert: %v", err)
	}
	if decoded.ID != "a1" {
		t.Errorf("decoded id = %s", decoded.ID)
	}
}

func TestPublishNothingIsNoop(t *testing.T) {
	p := NewKafkaAlertPublisher([]string{"127.0.0.1:1"}, "inventory.alerts")
	defer p.Close()
	if err := p.PublishAlerts(context.Background(), nil); err != nil {
		t.Fatalf("empty publish returned %v", err)
	}
}
