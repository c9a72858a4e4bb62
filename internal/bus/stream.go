// Package bus wraps Redis Streams for the two event flows the orchestrator
// depends on: inbound SimulationResult arrivals and outbound publication
// events.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xavierbriggs/decision-core/pkg/models"
)

// SimResultMessage wraps one SimulationResult arriving off the stream with
// the redis message id needed to ack it.
type SimResultMessage struct {
	ID     string
	Result models.SimulationResult
}

// Consumer consumes simulation results from a Redis Streams consumer group.
type Consumer struct {
	client     *redis.Client
	consumerID string
	groupName  string
}

func NewConsumer(client *redis.Client, consumerID, groupName string) *Consumer {
	return &Consumer{client: client, consumerID: consumerID, groupName: groupName}
}

// ConsumeSimResults starts consuming streamKey and returns channels for
// parsed messages and errors.
func (c *Consumer) ConsumeSimResults(ctx context.Context, streamKey string) (<-chan SimResultMessage, <-chan error) {
	messageCh := make(chan SimResultMessage, 100)
	errorCh := make(chan error, 10)

	if err := c.client.XGroupCreateMkStream(ctx, streamKey, c.groupName, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		errorCh <- fmt.Errorf("create consumer group: %w", err)
		close(messageCh)
		close(errorCh)
		return messageCh, errorCh
	}

	go func() {
		defer close(messageCh)
		defer close(errorCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    c.groupName,
					Consumer: c.consumerID,
					Streams:  []string{streamKey, ">"},
					Count:    10,
					Block:    1 * time.Second,
				}).Result()

				if err != nil {
					if err == redis.Nil {
						continue
					}
					if ctx.Err() != nil {
						return
					}
					errorCh <- fmt.Errorf("read from stream %s: %w", streamKey, err)
					time.Sleep(time.Second)
					continue
				}

				for _, stream := range streams {
					for _, xmsg := range stream.Messages {
						msg, err := parseSimResult(xmsg)
						if err != nil {
							errorCh <- fmt.Errorf("parse message %s: %w", xmsg.ID, err)
							continue
						}
						messageCh <- msg
					}
				}
			}
		}
	}()

	return messageCh, errorCh
}

func parseSimResult(xmsg redis.XMessage) (SimResultMessage, error) {
	payload, ok := xmsg.Values["data"].(string)
	if !ok {
		return SimResultMessage{}, fmt.Errorf("missing 'data' field in message")
	}
	var result models.SimulationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return SimResultMessage{}, fmt.Errorf("unmarshal simulation result: %w", err)
	}
	return SimResultMessage{ID: xmsg.ID, Result: result}, nil
}

// Ack acknowledges a processed message so it is not redelivered.
func (c *Consumer) Ack(ctx context.Context, streamKey, messageID string) error {
	return c.client.XAck(ctx, streamKey, c.groupName, messageID).Err()
}

// EventResultMessage wraps one finalized EventResult arriving off the
// grading worker's stream.
type EventResultMessage struct {
	ID     string
	Result models.EventResult
}

// ConsumeEventResults mirrors ConsumeSimResults for the grading worker's
// finalized-event stream.
func (c *Consumer) ConsumeEventResults(ctx context.Context, streamKey string) (<-chan EventResultMessage, <-chan error) {
	messageCh := make(chan EventResultMessage, 100)
	errorCh := make(chan error, 10)

	if err := c.client.XGroupCreateMkStream(ctx, streamKey, c.groupName, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		errorCh <- fmt.Errorf("create consumer group: %w", err)
		close(messageCh)
		close(errorCh)
		return messageCh, errorCh
	}

	go func() {
		defer close(messageCh)
		defer close(errorCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    c.groupName,
					Consumer: c.consumerID,
					Streams:  []string{streamKey, ">"},
					Count:    10,
					Block:    1 * time.Second,
				}).Result()

				if err != nil {
					if err == redis.Nil {
						continue
					}
					if ctx.Err() != nil {
						return
					}
					errorCh <- fmt.Errorf("read from stream %s: %w", streamKey, err)
					time.Sleep(time.Second)
					continue
				}

				for _, stream := range streams {
					for _, xmsg := range stream.Messages {
						msg, err := parseEventResult(xmsg)
						if err != nil {
							errorCh <- fmt.Errorf("parse message %s: %w", xmsg.ID, err)
							continue
						}
						messageCh <- msg
					}
				}
			}
		}
	}()

	return messageCh, errorCh
}

func parseEventResult(xmsg redis.XMessage) (EventResultMessage, error) {
	payload, ok := xmsg.Values["data"].(string)
	if !ok {
		return EventResultMessage{}, fmt.Errorf("missing 'data' field in message")
	}
	var result models.EventResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return EventResultMessage{}, fmt.Errorf("unmarshal event result: %w", err)
	}
	return EventResultMessage{ID: xmsg.ID, Result: result}, nil
}

// Publisher emits publication events onto Redis Streams for downstream
// consumers (e.g. a broadcast fanout service).
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

const publicationStreamPrefix = "predictions.published"

// PublishPrediction emits pub both to a channel-scoped stream and to the
// global predictions.published stream, so channel-specific consumers and
// firehose consumers each have a stream to group on.
func (p *Publisher) PublishPrediction(ctx context.Context, pub models.PublishedPrediction) error {
	payload, err := json.Marshal(pub)
	if err != nil {
		return fmt.Errorf("marshal published prediction: %w", err)
	}

	scoped := fmt.Sprintf("%s.%s", publicationStreamPrefix, pub.Channel)
	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: scoped,
		Values: map[string]interface{}{"data": string(payload)},
	}).Result(); err != nil {
		return fmt.Errorf("publish to %s: %w", scoped, err)
	}

	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: publicationStreamPrefix,
		Values: map[string]interface{}{"data": string(payload)},
	}).Result(); err != nil {
		return fmt.Errorf("publish to %s: %w", publicationStreamPrefix, err)
	}

	return nil
}
