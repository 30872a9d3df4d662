package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c testSchedulerConfig) GetRedisURL() string               { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool         { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string         { return c.queue }
func (c testSchedulerConfig) GetAsynqConcurrency() int          { return 1 }
func (c testSchedulerConfig) GetRASweepInterval() time.Duration { return time.Minute }

func TestClientSchedulesAdvanceTasks(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testSchedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "workflow"}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	payload := RAAdvancePayload{ReverseAuctionID: 7, TenderID: 3}
	runAt := time.Now().Add(time.Hour)

	if err := client.ScheduleRAAdvanceStart(context.Background(), payload, runAt); err != nil {
		t.Fatalf("ScheduleRAAdvanceStart: %v", err)
	}
	if err := client.ScheduleRAAdvanceEnd(context.Background(), payload, runAt.Add(time.Hour)); err != nil {
		t.Fatalf("ScheduleRAAdvanceEnd: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListScheduledTasks("workflow")
	if err != nil {
		t.Fatalf("ListScheduledTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d scheduled tasks, want 2", len(tasks))
	}

	types := map[string]bool{}
	for _, task := range tasks {
		types[task.Type] = true

		parsed, err := ParseRAAdvancePayload(asynq.NewTask(task.Type, task.Payload))
		if err != nil {
			t.Fatalf("ParseRAAdvancePayload: %v", err)
		}
		if parsed != payload {
			t.Errorf("payload = %+v, want %+v", parsed, payload)
		}
	}
	if !types[TaskRAAdvanceStart] || !types[TaskRAAdvanceEnd] {
		t.Errorf("task types = %v, want start and end", types)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("NewClient accepted an empty redis url")
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var client *Client
	if err := client.ScheduleRAAdvanceStart(context.Background(), RAAdvancePayload{}, time.Now()); err != nil {
		t.Fatalf("nil client ScheduleRAAdvanceStart: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("nil client Close: %v", err)
	}
}
