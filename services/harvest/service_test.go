package harvest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"brokerscan/lib/scrapers/brokers"
	"brokerscan/lib/sqliteutil"
	"brokerscan/lib/telemetry"
	"brokerscan/services/harvest/db"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cleanup := telemetry.SetupForTesting("test:services/harvest")
	code := m.Run()
	cleanup()
	os.Exit(code)
}

// memorySink collects rows without touching the filesystem.
type memorySink struct {
	rows   []OutputRow
	closed bool
}

func (s *memorySink) Append(row OutputRow) error {
	s.rows = append(s.rows, row)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

type fakeResident struct {
	Number       int    `json:"number"`
	Street       string `json:"street"`
	Name         string `json:"name"`
	Document     string `json:"document"`
	City         string `json:"city"`
	CityId       int64  `json:"cityId"`
	Neighborhood string `json:"neighborhood"`
	Uf           string `json:"uf"`
}

// fakePlatform emulates the three remote endpoints, keyed by house
// number. Contact payloads round trip through a fake "encryption"
// marker so the decrypt step gets exercised for real.
type fakePlatform struct {
	mu        sync.Mutex
	residents map[int]fakeResident
	contacts  map[string][]brokers.ContactPerson

	searchCalls  int
	contactCalls int
	readCalls    int

	failSearchWith  int
	failContactDocs map[string]bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		residents:       map[int]fakeResident{},
		contacts:        map[string][]brokers.ContactPerson{},
		failContactDocs: map[string]bool{},
	}
}

func (p *fakePlatform) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/brokers/residents/external/search", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.searchCalls++

		if p.failSearchWith != 0 {
			w.WriteHeader(p.failSearchWith)
			return
		}

		require.Equal(t, http.MethodGet, r.Method)
		initial := atoi(t, r.URL.Query().Get("InitialNumber"))
		final := atoi(t, r.URL.Query().Get("FinalNumber"))

		matches := []fakeResident{}
		for number, resident := range p.residents {
			if number >= initial && number <= final {
				matches = append(matches, resident)
			}
		}
		writeJson(t, w, matches)
	})

	mux.HandleFunc("/brokers/residents/external/contactinfo", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.contactCalls++

		var payload struct {
			Document string `json:"document"`
		}
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)

		if p.failContactDocs[payload.Document] {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if _, ok := p.contacts[payload.Document]; !ok {
			writeJson(t, w, map[string]any{"data": nil, "id": 0})
			return
		}
		writeJson(t, w, map[string]any{
			"data": "enc:" + payload.Document,
			"id":   7,
		})
	})

	mux.HandleFunc("/brokers/residents/external/contactinfo/read", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.readCalls++

		var payload struct {
			Data string `json:"data"`
		}
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)

		document := payload.Data[len("enc:"):]
		writeJson(t, w, map[string]any{"data": p.contacts[document]})
	})

	return mux
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	require.NoError(t, err)
	return n
}

func writeJson(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("content-type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	require.NoError(t, err)
}

func newTestService(t *testing.T, platform *fakePlatform, sink RowSink, opts Options) *Service {
	t.Helper()
	server := httptest.NewServer(platform.handler(t))
	t.Cleanup(server.Close)

	client, err := brokers.NewClient(brokers.ClientOptions{
		BaseUrl:     server.URL,
		BearerToken: "test-token",
	})
	require.NoError(t, err)

	service, err := NewService(client, sink, opts)
	require.NoError(t, err)
	return service
}

func tabajarasOptions() Options {
	return Options{
		Streets: []StreetRange{{
			Name:   "Rua Tabajaras",
			CityId: 981,
			Start:  1,
			End:    4,
			Step:   2,
		}},
	}
}

func TestRunEndToEnd(t *testing.T) {
	platform := newFakePlatform()
	platform.residents[1] = fakeResident{
		Number: 1, Street: "Rua Tabajaras", Name: "MARIA SILVA",
		Document: "111", City: "Uberlândia", CityId: 981,
		Neighborhood: "Centro", Uf: "MG",
	}
	platform.residents[3] = fakeResident{
		Number: 3, Street: "Rua Tabajaras", Name: "JOAO SOUZA",
		Document: "333", City: "Uberlândia", CityId: 981,
		Neighborhood: "Centro", Uf: "MG",
	}
	platform.contacts["111"] = []brokers.ContactPerson{{
		Document: "111",
		PfData:   brokers.PfData{Name: "MARIA SILVA"},
		ContactInfos: []brokers.ContactEntry{
			{Type: brokers.MobileContactType, PhoneNumber: "34991112222", Priority: 1},
			{Type: "TELEFONE FIXO", PhoneNumber: "3432221111"},
		},
	}}
	platform.contacts["333"] = []brokers.ContactPerson{{
		Document: "333",
		PfData:   brokers.PfData{Name: "JOAO SOUZA"},
		ContactInfos: []brokers.ContactEntry{
			{Type: "TELEFONE FIXO", PhoneNumber: "3432223333"},
		},
	}}

	sink := &memorySink{}
	service := newTestService(t, platform, sink, tabajarasOptions())

	summary, err := service.Run(context.Background())
	require.NoError(t, err)

	// two windows, [1,2] and [3,4]
	require.Equal(t, 2, platform.searchCalls)
	require.Equal(t, 2, platform.contactCalls)
	require.Equal(t, 2, platform.readCalls)

	require.Len(t, sink.rows, 1)
	require.Equal(t, "MARIA SILVA", sink.rows[0].Name)
	require.Equal(t, "34991112222", sink.rows[0].PhoneNumber)
	require.Equal(t, "Rua Tabajaras", sink.rows[0].Street)

	require.Equal(t, 2, summary.Windows)
	require.Equal(t, 2, summary.Residents)
	require.Equal(t, 3, summary.RawContacts)
	require.Equal(t, 1, summary.MobileContacts)
	require.Equal(t, 1, summary.RowsWritten)
}

func TestRunContinuesPastFailedResident(t *testing.T) {
	platform := newFakePlatform()
	platform.residents[1] = fakeResident{
		Number: 1, Street: "Rua Tabajaras", Document: "111", CityId: 981,
	}
	platform.residents[2] = fakeResident{
		Number: 2, Street: "Rua Tabajaras", Document: "222", CityId: 981,
	}
	platform.failContactDocs["111"] = true
	platform.contacts["222"] = []brokers.ContactPerson{{
		Document: "222",
		ContactInfos: []brokers.ContactEntry{
			{Type: brokers.MobileContactType, PhoneNumber: "34995556666"},
		},
	}}

	sink := &memorySink{}
	service := newTestService(t, platform, sink, tabajarasOptions())

	summary, err := service.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.rows, 1)
	require.Equal(t, "34995556666", sink.rows[0].PhoneNumber)
	require.Equal(t, 1, summary.SkippedResidents)
	require.Equal(t, 1, summary.RowsWritten)
}

func TestRunAbortsOnAuthFailure(t *testing.T) {
	platform := newFakePlatform()
	platform.failSearchWith = http.StatusUnauthorized

	sink := &memorySink{}
	service := newTestService(t, platform, sink, tabajarasOptions())

	_, err := service.Run(context.Background())
	require.ErrorIs(t, err, brokers.ErrUnauthorized)
	require.Empty(t, sink.rows)
	// the run stops at the first rejected window
	require.Equal(t, 1, platform.searchCalls)
}

func TestRunSkipsResidentsWithoutContactData(t *testing.T) {
	platform := newFakePlatform()
	platform.residents[1] = fakeResident{
		Number: 1, Street: "Rua Tabajaras", Document: "111", CityId: 981,
	}
	// no contacts entry for "111", the platform answers with null data

	sink := &memorySink{}
	service := newTestService(t, platform, sink, tabajarasOptions())

	summary, err := service.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, sink.rows)
	require.Equal(t, 1, summary.SkippedResidents)
	require.Equal(t, 0, platform.readCalls)
}

func TestRunDeduplicatesRepeatedContacts(t *testing.T) {
	platform := newFakePlatform()
	platform.residents[1] = fakeResident{
		Number: 1, Street: "Rua Tabajaras", Document: "111", CityId: 981,
	}
	platform.contacts["111"] = []brokers.ContactPerson{{
		Document: "111",
		ContactInfos: []brokers.ContactEntry{
			{Type: brokers.MobileContactType, PhoneNumber: "34991112222"},
			{Type: brokers.MobileContactType, PhoneNumber: "34991112222"},
		},
	}}

	sink := &memorySink{}
	service := newTestService(t, platform, sink, tabajarasOptions())

	summary, err := service.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.rows, 1)
	require.Equal(t, 1, summary.DuplicateRows)
}

func TestRunDropsShortPhoneNumbers(t *testing.T) {
	platform := newFakePlatform()
	platform.residents[1] = fakeResident{
		Number: 1, Street: "Rua Tabajaras", Document: "111", CityId: 981,
	}
	platform.contacts["111"] = []brokers.ContactPerson{{
		Document: "111",
		ContactInfos: []brokers.ContactEntry{
			{Type: brokers.MobileContactType, PhoneNumber: "1234"},
		},
	}}

	sink := &memorySink{}
	service := newTestService(t, platform, sink, tabajarasOptions())

	summary, err := service.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, sink.rows)
	require.Equal(t, 1, summary.InvalidRows)
}

func TestNewServiceRejectsInvalidRanges(t *testing.T) {
	_, err := NewService(nil, &memorySink{}, Options{})
	require.Error(t, err)

	_, err = NewService(nil, &memorySink{}, Options{
		Streets: []StreetRange{{Name: "Rua Tabajaras", CityId: 981, Start: 10, End: 2}},
	})
	require.Error(t, err)
}

func openTestStore(t *testing.T) (*db.Queries, *sql.DB) {
	t.Helper()
	database, err := sqliteutil.OpenDB(db.Schema, filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.New(database), database
}

func TestRunSkipsCheckpointedWindows(t *testing.T) {
	store, _ := openTestStore(t)

	ctx := context.Background()
	// pretend an earlier run already covered [1,2]
	err := store.NoteWindow(ctx, db.NoteWindowParams{
		Street:        "Rua Tabajaras",
		Cityid:        981,
		Initialnumber: 1,
		Finalnumber:   2,
		Runid:         "earlier-run",
		Completedat:   1,
	})
	require.NoError(t, err)

	platform := newFakePlatform()
	opts := tabajarasOptions()
	opts.Checkpoints = store

	sink := &memorySink{}
	service := newTestService(t, platform, sink, opts)

	summary, err := service.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.SkippedWindows)
	require.Equal(t, 1, summary.Windows)
	// only [3,4] hits the platform
	require.Equal(t, 1, platform.searchCalls)

	// the fresh window is now checkpointed too
	done, err := store.HasWindow(ctx, db.HasWindowParams{
		Street:        "Rua Tabajaras",
		Cityid:        981,
		Initialnumber: 3,
		Finalnumber:   4,
	})
	require.NoError(t, err)
	require.True(t, done)
}
