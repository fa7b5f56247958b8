package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/services/source"
	"github.com/ternarybob/narro/internal/workflow"
)

// ScheduledJobName is the scheduler job that runs the daily report
const ScheduledJobName = "daily_report"

// ErrNoSource is returned when a windowed run is requested without a payload source
var ErrNoSource = errors.New("no payload source configured")

// Runner executes one report run
type Runner interface {
	Run(ctx context.Context, req workflow.Request) (*workflow.Result, error)
}

// Fetcher retrieves a raw payload for a date window
type Fetcher interface {
	Fetch(ctx context.Context, window source.Window) (any, error)
}

// Service starts report runs from a payload, a file or a source window
type Service struct {
	runner       Runner
	fetcher      Fetcher
	lookbackDays int
	question     string
	logger       arbor.ILogger
	now          func() time.Time
}

// NewService creates a reports service. fetcher may be nil when no webhook is configured.
func NewService(runner Runner, fetcher Fetcher, sourceConfig *common.SourceConfig, scheduleConfig *common.ScheduleConfig, logger arbor.ILogger) *Service {
	return &Service{
		runner:       runner,
		fetcher:      fetcher,
		lookbackDays: sourceConfig.LookbackDays,
		question:     scheduleConfig.Question,
		logger:       logger,
		now:          time.Now,
	}
}

// RunPayload runs the workflow over the request's already decoded payload
func (s *Service) RunPayload(ctx context.Context, req workflow.Request) (*workflow.Result, error) {
	return s.runner.Run(ctx, req)
}

// RunFile loads a JSON or YAML payload file and runs the workflow over it
func (s *Service) RunFile(ctx context.Context, req workflow.Request, path string) (*workflow.Result, error) {
	payload, err := source.LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("file", path).Msg("Payload file loaded")
	req.Payload = payload
	return s.RunPayload(ctx, req)
}

// RunWindow fetches the window's orders from the source and runs the workflow over them
func (s *Service) RunWindow(ctx context.Context, req workflow.Request, window source.Window) (*workflow.Result, error) {
	if s.fetcher == nil {
		return nil, ErrNoSource
	}

	s.logger.Info().
		Str("from", window.From.Format(source.DateLayout)).
		Str("to", window.To.Format(source.DateLayout)).
		Msg("Fetching payload from source")

	payload, err := s.fetcher.Fetch(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payload: %w", err)
	}
	req.Payload = payload
	return s.RunPayload(ctx, req)
}

// RunScheduled runs the report over the configured lookback window ending yesterday.
// It matches scheduler.JobFunc.
func (s *Service) RunScheduled(ctx context.Context) error {
	window := source.LookbackWindow(s.now(), s.lookbackDays)
	result, err := s.RunWindow(ctx, workflow.Request{Question: s.question}, window)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("run_id", result.RunID).
		Int("final_score", result.FinalScore).
		Bool("emailed", result.Emailed).
		Msg("Scheduled report finished")
	return nil
}
