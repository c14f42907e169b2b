// Package notify delivers OTP issuance events to service providers over
// Kafka. Delivery is fire-and-forget; failures are logged and swallowed.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"delivery-service/internal/client"
	"delivery-service/internal/util"
)

const notifyTimeout = 5 * time.Second

type otpEvent struct {
	Event             string `json:"event"`
	ServiceProviderID string `json:"serviceProviderId,omitempty"`
	OTPID             string `json:"otpId,omitempty"`
	ErrorID           string `json:"errorId,omitempty"`
	Reason            string `json:"reason,omitempty"`
	Timestamp         int64  `json:"timestamp"`
}

// KafkaNotifier publishes OTP lifecycle events to the notify topic, keyed
// by service provider so per-provider ordering holds.
type KafkaNotifier struct {
	producer *client.KafkaProducer
	topic    string
}

func NewKafkaNotifier(producer *client.KafkaProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) NotifyOTPGenerated(ctx context.Context, serviceProviderID, otpID string) {
	n.publish(ctx, serviceProviderID, otpEvent{
		Event:             "OTP_GENERATED",
		ServiceProviderID: serviceProviderID,
		OTPID:             otpID,
		Timestamp:         time.Now().UnixMilli(),
	})
}

func (n *KafkaNotifier) NotifyOTPGenerationFailed(ctx context.Context, errorID, reason string) {
	n.publish(ctx, errorID, otpEvent{
		Event:     "OTP_GENERATION_FAILED",
		ErrorID:   errorID,
		Reason:    reason,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (n *KafkaNotifier) publish(ctx context.Context, key string, event otpEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		util.Error("Failed to marshal notify event",
			zap.String("event", event.Event),
			zap.Error(err))
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := n.producer.ProduceMessage(publishCtx, n.topic, []byte(key), payload, nil); err != nil {
		util.Error("Failed to publish notify event",
			zap.String("event", event.Event),
			zap.String("topic", n.topic),
			zap.Error(err))
	}
}

// LogNotifier stands in when Kafka is disabled.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) NotifyOTPGenerated(ctx context.Context, serviceProviderID, otpID string) {
	util.Info("OTP generated",
		zap.String("service_provider_id", serviceProviderID),
		zap.String("otp_id", otpID))
}

func (n *LogNotifier) NotifyOTPGenerationFailed(ctx context.Context, errorID, reason string) {
	util.Warn("OTP generation failed",
		zap.String("error_id", errorID),
		zap.String("reason", reason))
}
