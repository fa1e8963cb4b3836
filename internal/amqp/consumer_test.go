package amqp

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeDelivery struct {
	data    []byte
	acked   bool
	nacked  bool
	requeue bool
}

func (d *fakeDelivery) body() []byte { return d.data }

func (d *fakeDelivery) Ack(bool) error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(_ bool, requeue bool) error {
	d.nacked = true
	d.requeue = requeue
	return nil
}

func TestSettle(t *testing.T) {
	valid, err := NewStatementIngestedMessage("upload", "statement.csv", 8).ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		wantAck     bool
		wantRequeue bool
		wantCalled  bool
	}{
		{name: "handled", body: valid, wantAck: true, wantCalled: true},
		{name: "handler error requeues", body: valid, handlerErr: errors.New("sheets down"), wantRequeue: true, wantCalled: true},
		{name: "malformed body dropped", body: []byte("{not json"), wantRequeue: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDelivery{data: tt.body}
			called := false
			settle(context.Background(), d, func(_ context.Context, msg *StatementIngestedMessage) error {
				called = true
				if msg.Rows != 8 {
					t.Errorf("handler got rows = %d, want 8", msg.Rows)
				}
				return tt.handlerErr
			}, 0)

			if called != tt.wantCalled {
				t.Errorf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if d.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", d.acked, tt.wantAck)
			}
			if !tt.wantAck && !d.nacked {
				t.Error("unsuccessful delivery should be nacked")
			}
			if d.requeue != tt.wantRequeue {
				t.Errorf("requeue = %v, want %v", d.requeue, tt.wantRequeue)
			}
		})
	}
}

func TestSettle_RequeueWaits(t *testing.T) {
	body, err := NewStatementIngestedMessage("upload", "statement.csv", 8).ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	failing := func(context.Context, *StatementIngestedMessage) error { return errors.New("sheets down") }

	d := &fakeDelivery{data: body}
	start := time.Now()
	settle(context.Background(), d, failing, 50*time.Millisecond)
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("requeued after %v, want at least 50ms", elapsed)
	}
	if !d.requeue {
		t.Error("failed delivery should be requeued")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d = &fakeDelivery{data: body}
	start = time.Now()
	settle(ctx, d, failing, time.Hour)
	if time.Since(start) > time.Second {
		t.Error("cancelled context should cut the requeue wait short")
	}
	if !d.requeue {
		t.Error("delivery should still be requeued on shutdown")
	}
}
