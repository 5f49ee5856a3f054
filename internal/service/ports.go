package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventBroadcaster pushes live events to websocket clients watching a station.
type EventBroadcaster interface {
	Publish(stationID uuid.UUID, event string, payload interface{})
}

// Alert is a variance or operations alert forwarded to on-call staff.
type Alert struct {
	StationID uuid.UUID
	ShiftID   uuid.UUID
	Severity  string
	Subject   string
	Message   string
}

// AlertPublisher delivers alerts, e.g. to an SNS topic.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert Alert) error
}

// SummaryCache stores computed dashboard summaries per station.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateStation(ctx context.Context, stationID uuid.UUID) error
}

// ReportArchive stores exported reports and returns a download location.
type ReportArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(uuid.UUID, string, interface{}) {}

type nopAlerts struct{}

func (nopAlerts) PublishAlert(context.Context, Alert) error { return nil }

type nopCache struct{}

func (nopCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (nopCache) InvalidateStation(context.Context, uuid.UUID) error { return nil }
