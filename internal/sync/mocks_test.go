package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/quickbooks"
)

// memStore implements Store in memory for testing.
type memStore struct {
	conn      *mirror.Connection
	connErr   error
	createErr error
	failures  []mirror.SyncFailure
	finished  []mirror.SyncRun
	insertErr func(rec mirror.Record) error
	nextID uint
	now       func() time.Time
	rows    map[string]map[string]mirror.Record
	started []mirror.SyncRun
}

func newMemStore(conn *mirror.Connection) *memStore {
	return &memStore{
		conn: conn,
		now:  func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		rows: make(map[string]map[string]mirror.Record),
	}
}

func rowKey(connectionID uint, externalID string) string {
	return fmt.Sprintf("%d/%s", connectionID, externalID)
}

// ActiveConnection returns a copy of the configured connection when it matches.
func (m *memStore) ActiveConnection(_ context.Context, organizationID string) (*mirror.Connection, error) {
	if m.connErr != nil {
		return nil, m.connErr
	}
	if m.conn == nil || !m.conn.IsActive || m.conn.OrganizationID != organizationID {
		return nil, nil
	}
	c := *m.conn
	return &c, nil
}

// CreateSyncRun assigns an ID and snapshots the run.
func (m *memStore) CreateSyncRun(_ context.Context, run *mirror.SyncRun) error {
	if m.createErr != nil {
		return m.createErr
	}
	run.ID = uint(len(m.started) + 1)
	m.started = append(m.started, *run)
	return nil
}

// FinishSyncRun snapshots the run. Fails on a cancelled context like a real database would.
func (m *memStore) FinishSyncRun(ctx context.Context, run *mirror.SyncRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.finished = append(m.finished, *run)
	return nil
}

// RecordFailure stores the failure.
func (m *memStore) RecordFailure(_ context.Context, failure *mirror.SyncFailure) error {
	m.failures = append(m.failures, *failure)
	return nil
}

// RecordSyncFailure marks the connection failed.
func (m *memStore) RecordSyncFailure(ctx context.Context, _ uint, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.conn.LastSyncStatus = mirror.SyncStatusFailed
	m.conn.LastSyncError = message
	return nil
}

// RecordSyncSuccess advances the watermark.
func (m *memStore) RecordSyncSuccess(ctx context.Context, _ uint, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.conn.LastSyncAt = &completedAt
	m.conn.LastSyncStatus = mirror.SyncStatusSuccess
	m.conn.LastSyncError = ""
	return nil
}

// Insert stores a new record.
func (m *memStore) Insert(_ context.Context, rec mirror.Record) error {
	if m.insertErr != nil {
		if err := m.insertErr(rec); err != nil {
			return err
		}
	}
	base := rec.Base()
	m.nextID++
	base.ID = m.nextID
	base.CreatedAt = m.now()
	base.UpdatedAt = m.now()

	table := m.rows[rec.TableName()]
	if table == nil {
		table = make(map[string]mirror.Record)
		m.rows[rec.TableName()] = table
	}
	table[rowKey(base.ConnectionID, base.ExternalID)] = rec
	return nil
}

// Lookup finds a record by connection and external ID.
func (m *memStore) Lookup(_ context.Context, table string, connectionID uint, externalID string) (*mirror.Model, error) {
	rec, ok := m.rows[table][rowKey(connectionID, externalID)]
	if !ok {
		return nil, nil
	}
	base := *rec.Base()
	return &base, nil
}

// Replace overwrites an existing record.
func (m *memStore) Replace(_ context.Context, rec mirror.Record) error {
	base := rec.Base()
	key := rowKey(base.ConnectionID, base.ExternalID)
	existing, ok := m.rows[rec.TableName()][key]
	if !ok || existing.Base().ID != base.ID {
		return fmt.Errorf("no row %d in %s", base.ID, rec.TableName())
	}
	base.UpdatedAt = m.now()
	m.rows[rec.TableName()][key] = rec
	return nil
}

// count returns the number of rows in table.
func (m *memStore) count(table string) int {
	return len(m.rows[table])
}

// total returns the number of mirror rows across all tables.
func (m *memStore) total() int {
	n := 0
	for _, t := range m.rows {
		n += len(t)
	}
	return n
}

// fakeQuerier serves canned pages per entity.
type fakeQuerier struct {
	calls  []quickbooks.Query
	failOn map[string]error
	onQuery func(q quickbooks.Query)
	records map[string][]json.RawMessage
	tids    []string
}

// Query returns the slice of records the query's offset and limit select.
func (f *fakeQuerier) Query(_ context.Context, q quickbooks.Query) (*quickbooks.QueryPage, error) {
	f.calls = append(f.calls, q)
	if f.onQuery != nil {
		f.onQuery(q)
	}
	if err := f.failOn[q.Entity]; err != nil {
		return nil, err
	}

	tid := fmt.Sprintf("tid-%d", len(f.calls))
	if len(f.tids) >= len(f.calls) {
		tid = f.tids[len(f.calls)-1]
	}

	all := f.records[q.Entity]
	start := min(q.StartPosition-1, len(all))
	end := min(start+q.MaxResults, len(all))

	return &quickbooks.QueryPage{Records: all[start:end], TransactionID: tid}, nil
}

// callsFor returns the queries issued for entity.
func (f *fakeQuerier) callsFor(entity string) []quickbooks.Query {
	var out []quickbooks.Query
	for _, c := range f.calls {
		if c.Entity == entity {
			out = append(out, c)
		}
	}
	return out
}

// fakeLocker implements Locker for testing.
type fakeLocker struct {
	err  error
	held bool
	keys []string
	lost     chan struct{}
	released int
}

// TryLock acquires the lock unless it is already held.
// Closing lost simulates a renewal failure for the lease handed out.
func (l *fakeLocker) TryLock(_ context.Context, key string) (Lease, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	l.keys = append(l.keys, key)
	if l.lost == nil {
		l.lost = make(chan struct{})
	}
	return &fakeLease{locker: l}, true, nil
}

// fakeLease is the lease handed out by fakeLocker.
type fakeLease struct {
	locker *fakeLocker
}

func (f *fakeLease) Lost() <-chan struct{} {
	return f.locker.lost
}

func (f *fakeLease) Release(context.Context) error {
	f.locker.held = false
	f.locker.released++
	return nil
}

// rawRecords builds n minimal remote records with IDs prefix1..prefixN.
func rawRecords(prefix string, n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range n {
		out[i] = json.RawMessage(fmt.Sprintf(`{"Id":"%s%d","SyncToken":"0","TotalAmt":10,"Balance":0}`, prefix, i+1))
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
