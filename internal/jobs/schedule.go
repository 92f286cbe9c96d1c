package jobs

import (
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

// Schedules says when each periodic job fires
type Schedules struct {
	DispatchInterval time.Duration
	RetentionCron    string
	AttachmentCron   string
	// Location is the civil zone the daily crons are evaluated in
	Location *time.Location
}

// zonedSchedule evaluates a cron expression in a fixed location
type zonedSchedule struct {
	schedule cron.Schedule
	location *time.Location
}

func (s zonedSchedule) Next(current time.Time) time.Time {
	return s.schedule.Next(current.In(s.location))
}

func parseDaily(spec string, location *time.Location) (zonedSchedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return zonedSchedule{}, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	if location == nil {
		location = time.UTC
	}
	return zonedSchedule{schedule: schedule, location: location}, nil
}

// PeriodicJobs builds the three periodic jobs of the pipeline
func PeriodicJobs(s Schedules) ([]*river.PeriodicJob, error) {
	if s.DispatchInterval <= 0 {
		return nil, fmt.Errorf("dispatch interval must be positive, got %s", s.DispatchInterval)
	}
	retention, err := parseDaily(s.RetentionCron, s.Location)
	if err != nil {
		return nil, err
	}
	attachments, err := parseDaily(s.AttachmentCron, s.Location)
	if err != nil {
		return nil, err
	}

	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(s.DispatchInterval),
			func() (river.JobArgs, *river.InsertOpts) { return DispatchArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
		river.NewPeriodicJob(
			retention,
			func() (river.JobArgs, *river.InsertOpts) { return RetentionArgs{}, nil },
			nil,
		),
		river.NewPeriodicJob(
			attachments,
			func() (river.JobArgs, *river.InsertOpts) { return AttachmentCleanupArgs{}, nil },
			nil,
		),
	}, nil
}
