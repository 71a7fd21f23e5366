package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
)

// KafkaRecorder 把状态流转事件发到 Kafka，消息 key 为订单 id（同单有序）。
type KafkaRecorder struct {
	topic    string
	producer sarama.SyncProducer
}

func NewKafkaRecorder(brokers []string, topic string) (*KafkaRecorder, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka brokers/topic required")
	}

	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true
	conf.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, conf)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaRecorder{topic: topic, producer: producer}, nil
}

func (k *KafkaRecorder) RecordStatusChange(_ context.Context, ev StatusChange) error {
	if k == nil || k.producer == nil {
		return fmt.Errorf("kafka producer is nil")
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.OrderID),
		Value: sarama.ByteEncoder(value),
	})
	return err
}

func (k *KafkaRecorder) Close() error {
	if k == nil || k.producer == nil {
		return nil
	}
	return k.producer.Close()
}
