package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/matt-steen/care-tracker/pkg/notify"
	"github.com/stretchr/testify/assert"
)

func TestReconcileRestoresDays(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	scheduler, _ := getScheduler(assert, true)

	assert.Nil(scheduler.Schedule(ctx, mondayThursday("7")))

	// the server returns the task without its weekday schedule
	loaded := mondayThursday("7")
	loaded.RecurringDays = [7]bool{}

	tasks, err := scheduler.Reconcile(ctx, []model.Task{loaded})
	assert.Nil(err)
	assert.Equal(1, len(tasks))
	assert.Equal([]time.Weekday{time.Monday, time.Thursday}, tasks[0].SelectedDays())
}

func TestReconcileSchedulesMissing(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	scheduler, device := getScheduler(assert, true)

	future := oneShot("3", monday10am.Add(2*time.Hour))
	past := oneShot("4", monday10am.Add(-2*time.Hour))

	unknownDays := mondayThursday("5")
	unknownDays.RecurringDays = [7]bool{}

	_, err := scheduler.Reconcile(ctx, []model.Task{future, past, unknownDays, mondayThursday("6")})
	assert.Nil(err)

	pending, err := device.Pending(ctx, "3")
	assert.Nil(err)
	assert.Equal(1, len(pending))

	pending, err = device.Pending(ctx, "4")
	assert.Nil(err)
	assert.Equal(0, len(pending))

	pending, err = device.Pending(ctx, "5")
	assert.Nil(err)
	assert.Equal(0, len(pending))

	pending, err = device.Pending(ctx, "6")
	assert.Nil(err)
	assert.Equal(2, len(pending))
}

func TestReconcileCancelsDisabled(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	scheduler, device := getScheduler(assert, true)

	assert.Nil(scheduler.Schedule(ctx, mondayThursday("7")))

	disabled := mondayThursday("7")
	disabled.Enabled = false
	disabled.RecurringDays = [7]bool{}

	tasks, err := scheduler.Reconcile(ctx, []model.Task{disabled})
	assert.Nil(err)
	assert.Equal([]time.Weekday{time.Monday, time.Thursday}, tasks[0].SelectedDays())

	pending, err := device.Pending(ctx, "7")
	assert.Nil(err)
	assert.Equal(0, len(pending))
}

func TestReconcilePermissionDenied(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	scheduler, device := getScheduler(assert, false)

	tasks, err := scheduler.Reconcile(context.Background(), []model.Task{
		oneShot("3", monday10am.Add(time.Hour)),
		oneShot("4", monday10am.Add(2*time.Hour)),
	})
	assert.True(errors.Is(err, model.ErrPermissionDenied))
	assert.Equal(2, len(tasks))

	all, err := device.All(context.Background())
	assert.Nil(err)
	assert.Equal(0, len(all))
}

func TestDeliverDue(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	scheduler, device := getScheduler(assert, true)

	assert.Nil(scheduler.Schedule(ctx, mondayThursday("7")))
	assert.Nil(scheduler.Schedule(ctx, oneShot("3", monday10am.Add(time.Hour))))

	delivered := []notify.Notification{}
	deliver := func(n notify.Notification) { delivered = append(delivered, n) }

	// nothing is due yet
	assert.Nil(scheduler.DeliverDue(ctx, monday10am, deliver))
	assert.Equal(0, len(delivered))

	// past the one-shot and Thursday's trigger
	now := time.Date(2030, 1, 10, 9, 30, 0, 0, time.UTC)
	assert.Nil(scheduler.DeliverDue(ctx, now, deliver))
	assert.Equal(2, len(delivered))
	assert.Equal("3", delivered[0].TaskID)
	assert.Equal("Med Reminders", delivered[0].Title)
	assert.Equal("7", delivered[1].TaskID)
	assert.Equal("Reminder for Ada Lovelace", delivered[1].Body)
	assert.Equal(time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC), delivered[1].At)

	// delivering again does not repeat them
	assert.Nil(scheduler.DeliverDue(ctx, now, deliver))
	assert.Equal(2, len(delivered))

	pending, err := device.Pending(ctx, "3")
	assert.Nil(err)
	assert.Equal(0, len(pending))

	pending, err = device.Pending(ctx, "7")
	assert.Nil(err)
	assert.Equal(2, len(pending))
	assert.Equal(time.Date(2030, 1, 14, 9, 0, 0, 0, time.UTC), pending[0].FireAt)
	assert.Equal(time.Date(2030, 1, 17, 9, 0, 0, 0, time.UTC), pending[1].FireAt)
}
