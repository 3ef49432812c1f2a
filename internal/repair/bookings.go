package repair

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldsync/internal/model"
	"github.com/sells-group/fieldsync/internal/sync"
)

// Bookings re-fetches bookings created on the given local date and rewrites
// their schedule from the platform's current answer. It exists for incidents
// where a bad payload batch corrupted scheduled dates: only scheduled_date
// and start_time are rewritten, everything else on the row is left alone.
func (r *Runner) Bookings(ctx context.Context, date string, limit int, dryRun bool) (*model.RunResult, error) {
	if r.platform == nil {
		return nil, eris.New("repair: booking platform client not configured")
	}
	if date == "" {
		return nil, eris.New("repair: date is required")
	}

	return runJob(ctx, r, job[model.Booking]{
		name: "repair-bookings",
		scan: func(ctx context.Context, limit int) ([]model.Booking, error) {
			return r.store.ListBookingsCreatedOn(ctx, date, limit)
		},
		count: func(ctx context.Context) (int, error) {
			return r.store.CountBookingsCreatedOn(ctx, date)
		},
		id: func(b model.Booking) string { return b.ID },
		enrich: func(ctx context.Context, b model.Booking) (map[string]any, error) {
			appt, err := r.platform.GetAppointment(ctx, b.ExternalID)
			if err != nil {
				return nil, err
			}
			scheduled, start := sync.SplitStartTime(appt.StartTime)
			if scheduled == "" {
				return nil, nil
			}
			if scheduled == b.ScheduledDate && start == b.StartTime {
				return nil, nil
			}
			return map[string]any{
				"scheduled_date": scheduled,
				"start_time":     start,
			}, nil
		},
		persist: func(ctx context.Context, b model.Booking, fields map[string]any) error {
			return r.store.UpdateBooking(ctx, b.ID, fields)
		},
	}, limit, dryRun)
}
