package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/roster/internal/adapters/mq/queue"
	"github.com/okian/roster/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func task(kind model.RefreshKind) queue.Task {
	return queue.Task{EmployeeID: uuid.New(), Kind: kind}
}

func TestEnqueueDequeue(t *testing.T) {
	Convey("Given a fresh queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		ctx := context.Background()

		Convey("When a task is enqueued", func() {
			in := task(model.RefreshProfile)
			ok := q.Enqueue(ctx, in)

			Convey("Then it is accepted and can be dequeued", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)

				select {
				case out := <-q.Dequeue(ctx):
					So(out.EmployeeID, ShouldEqual, in.EmployeeID)
					So(out.Kind, ShouldEqual, model.RefreshProfile)
				case <-time.After(time.Second):
					t.Fatal("timed out waiting for dequeue")
				}
			})
		})
	})
}

func TestBackpressure(t *testing.T) {
	Convey("Given a queue at capacity", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		ctx := context.Background()
		So(q.Enqueue(ctx, task(model.RefreshProfile)), ShouldBeTrue)

		Convey("When another task is enqueued", func() {
			Convey("Then it is rejected without blocking", func() {
				So(q.Enqueue(ctx, task(model.RefreshWorkload)), ShouldBeFalse)
			})
		})
	})
}

func TestClose(t *testing.T) {
	Convey("Given a queue with one pending task", t, func() {
		q := queue.NewInMemoryQueue()
		ctx := context.Background()
		q.Enqueue(ctx, task(model.RefreshWorkload))

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then it reports closed and rejects new tasks", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, task(model.RefreshProfile)), ShouldBeFalse)
			})

			Convey("And the pending task drains before the channel closes", func() {
				ch := q.Dequeue(ctx)
				_, open := <-ch
				So(open, ShouldBeTrue)
				_, open = <-ch
				So(open, ShouldBeFalse)
			})

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
