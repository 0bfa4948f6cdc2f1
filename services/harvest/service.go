package harvest

import (
	"context"
	"errors"
	"log/slog"

	"brokerscan/lib/pacing"
	"brokerscan/lib/scrapers/brokers"
	"brokerscan/lib/timezone"
	"brokerscan/services/harvest/db"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultStep = 10

// StreetRange is one street to scrape, immutable for the run.
type StreetRange struct {
	Name   string `json:"name" validate:"required"`
	CityId int64  `json:"city_id" validate:"required"`
	Start  int    `json:"start" validate:"gte=0"`
	End    int    `json:"end" validate:"gtefield=Start"`
	// window size for a single search call, defaults to 10
	Step int `json:"step" validate:"gte=0"`
}

type Options struct {
	Streets []StreetRange `validate:"required,min=1,dive"`
	Pacing  pacing.Config
	// optional, enables skipping windows completed by earlier runs
	Checkpoints *db.Queries
}

// Service drives the search, contact-fetch and decrypt pipeline over
// every configured street range, strictly sequentially. Concurrency
// would defeat the pacing, so there is none.
type Service struct {
	client  *brokers.Client
	sink    RowSink
	pace    pacing.Controller
	streets []StreetRange
	store   *db.Queries
	runId   string

	seen map[dedupeKey]struct{}
}

type dedupeKey struct {
	street   string
	number   string
	phone    string
	document string
}

func NewService(client *brokers.Client, sink RowSink, opts Options) (*Service, error) {
	err := validator.New().Struct(opts)
	if err != nil {
		return nil, err
	}
	pace, err := pacing.NewController(opts.Pacing)
	if err != nil {
		return nil, err
	}

	streets := make([]StreetRange, len(opts.Streets))
	copy(streets, opts.Streets)
	for i := range streets {
		if streets[i].Step == 0 {
			streets[i].Step = defaultStep
		}
	}

	return &Service{
		client:  client,
		sink:    sink,
		pace:    pace,
		streets: streets,
		store:   opts.Checkpoints,
		runId:   uuid.NewString(),
		seen:    map[dedupeKey]struct{}{},
	}, nil
}

// Summary is the outcome of one run.
type Summary struct {
	RunId            string
	Streets          int
	Windows          int
	SkippedWindows   int
	Residents        int
	SkippedResidents int
	RawContacts      int
	MobileContacts   int
	RowsWritten      int
	DuplicateRows    int
	InvalidRows      int
}

// Run executes the whole scrape. Failures at window or resident
// granularity are logged and skipped, only an authentication failure
// or cancellation aborts the run.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunId: s.runId, Streets: len(s.streets)}

	if s.store != nil {
		err := s.store.CreateRun(ctx, db.CreateRunParams{
			ID:        s.runId,
			Startedat: timezone.Now().Unix(),
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to record run", "run_id", s.runId, "err", err)
		}
	}

	for i, street := range s.streets {
		if i > 0 {
			err := s.pace.Wait(ctx, pacing.KindRange)
			if err != nil {
				return summary, err
			}
		}

		slog.InfoContext(ctx, "starting street range",
			"street", street.Name,
			"start", street.Start,
			"end", street.End,
		)
		err := s.scrapeStreet(ctx, street, &summary)
		if err != nil {
			return summary, err
		}
		slog.InfoContext(ctx, "completed street range",
			"street", street.Name,
			"rows_written", summary.RowsWritten,
		)
	}

	return summary, nil
}

func (s *Service) scrapeStreet(ctx context.Context, street StreetRange, summary *Summary) error {
	for initial := street.Start; initial <= street.End; initial += street.Step {
		final := min(initial+street.Step-1, street.End)

		if s.store != nil {
			done, err := s.store.HasWindow(ctx, db.HasWindowParams{
				Street:        street.Name,
				Cityid:        street.CityId,
				Initialnumber: int64(initial),
				Finalnumber:   int64(final),
			})
			if err != nil {
				slog.WarnContext(ctx, "checkpoint lookup failed", "err", err)
			}
			if done {
				slog.InfoContext(ctx, "skipping window completed by an earlier run",
					"street", street.Name,
					"initial", initial,
					"final", final,
				)
				summary.SkippedWindows++
				continue
			}
		}

		err := s.pace.Wait(ctx, pacing.KindSearch)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "searching residents",
			"street", street.Name,
			"initial", initial,
			"final", final,
		)
		residents, err := s.client.SearchResidents(ctx, street.Name, initial, final, street.CityId)
		if err != nil {
			if errors.Is(err, brokers.ErrUnauthorized) {
				return err
			}
			// a single bad window must not stop the remaining ranges
			slog.ErrorContext(ctx, "search window failed",
				"street", street.Name,
				"initial", initial,
				"final", final,
				"step", "search",
				"err", err,
			)
			continue
		}

		if len(residents) > 0 {
			slog.InfoContext(ctx, "found residents",
				"count", len(residents),
				"initial", initial,
				"final", final,
			)
		}
		for _, resident := range residents {
			summary.Residents++
			err := s.scrapeResident(ctx, street, resident, summary)
			if err != nil {
				return err
			}
		}

		summary.Windows++
		if s.store != nil {
			err := s.store.NoteWindow(ctx, db.NoteWindowParams{
				Street:        street.Name,
				Cityid:        street.CityId,
				Initialnumber: int64(initial),
				Finalnumber:   int64(final),
				Runid:         s.runId,
				Completedat:   timezone.Now().Unix(),
			})
			if err != nil {
				slog.WarnContext(ctx, "failed to checkpoint window", "err", err)
			}
		}
	}

	return nil
}

func (s *Service) scrapeResident(ctx context.Context, street StreetRange, resident brokers.Resident, summary *Summary) error {
	err := s.pace.Wait(ctx, pacing.KindContact)
	if err != nil {
		return err
	}
	contact, err := s.client.GetContactInfo(ctx, resident, street.CityId)
	if errors.Is(err, brokers.ErrNoContactData) {
		slog.DebugContext(ctx, "resident has no contact data",
			"street", street.Name,
			"number", resident.NumberString(),
		)
		summary.SkippedResidents++
		return nil
	}
	if err != nil {
		if errors.Is(err, brokers.ErrUnauthorized) {
			return err
		}
		slog.WarnContext(ctx, "skipping resident",
			"street", street.Name,
			"number", resident.NumberString(),
			"step", "contact-fetch",
			"err", err,
		)
		summary.SkippedResidents++
		return nil
	}

	err = s.pace.Wait(ctx, pacing.KindDecrypt)
	if err != nil {
		return err
	}
	persons, err := s.client.ReadContactInfo(ctx, contact)
	if err != nil {
		if errors.Is(err, brokers.ErrUnauthorized) {
			return err
		}
		slog.WarnContext(ctx, "skipping resident",
			"street", street.Name,
			"number", resident.NumberString(),
			"step", "decrypt",
			"err", err,
		)
		summary.SkippedResidents++
		return nil
	}

	for _, person := range persons {
		summary.RawContacts += len(person.ContactInfos)
	}
	rows := MobileRows(street.Name, resident, persons)
	summary.MobileContacts += len(rows)
	for _, row := range rows {
		s.appendRow(ctx, row, summary)
	}
	return nil
}

func (s *Service) appendRow(ctx context.Context, row OutputRow, summary *Summary) {
	if !validPhone(row.PhoneNumber) {
		slog.DebugContext(ctx, "dropping invalid phone number", "phone", row.PhoneNumber)
		summary.InvalidRows++
		return
	}

	key := dedupeKey{
		street:   row.Street,
		number:   row.Number,
		phone:    row.PhoneNumber,
		document: row.Document,
	}
	_, dup := s.seen[key]
	if dup {
		slog.DebugContext(ctx, "dropping duplicate contact", "phone", row.PhoneNumber)
		summary.DuplicateRows++
		return
	}
	s.seen[key] = struct{}{}

	err := s.sink.Append(row)
	if err != nil {
		slog.ErrorContext(ctx, "failed to append output row", "err", err)
		return
	}
	summary.RowsWritten++
}
