package bus

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestParseSimResultRejectsMissingDataField(t *testing.T) {
	xmsg := redis.XMessage{ID: "1-1", Values: map[string]interface{}{}}
	if _, err := parseSimResult(xmsg); err == nil {
		t.Error("expected error when the data field is missing")
	}
}

func TestParseSimResultRejectsInvalidJSON(t *testing.T) {
	xmsg := redis.XMessage{ID: "1-1", Values: map[string]interface{}{"data": "not json"}}
	if _, err := parseSimResult(xmsg); err == nil {
		t.Error("expected error on invalid JSON payload")
	}
}

func TestParseSimResultAcceptsWellFormedPayload(t *testing.T) {
	xmsg := redis.XMessage{ID: "1-1", Values: map[string]interface{}{
		"data": `{"schema_version":"v1","game_id":"game-1","market_type":"SPREAD"}`,
	}}
	msg, err := parseSimResult(xmsg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Result.GameID != "game-1" {
		t.Errorf("expected game_id game-1, got %s", msg.Result.GameID)
	}
}

func TestParseEventResultAcceptsWellFormedPayload(t *testing.T) {
	xmsg := redis.XMessage{ID: "1-1", Values: map[string]interface{}{
		"data": `{"game_id":"game-1","home_score":24,"away_score":17,"completed":true}`,
	}}
	msg, err := parseEventResult(xmsg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msg.Result.Completed || msg.Result.HomeScore != 24 {
		t.Errorf("unexpected parsed result: %+v", msg.Result)
	}
}
