// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_transcript

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	internal_session "github.com/voxbridgeai/api/call-api/internal/session"
	"github.com/voxbridgeai/pkg/commons"
	"github.com/voxbridgeai/pkg/connectors"
)

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	l, err := commons.NewApplicationLogger(
		commons.Name("test-transcript"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return l
}

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}

	log := newTestLogger(t)
	return NewStore(connectors.NewPostgresConnectorFromDB(gdb, log), log), mock
}

func TestInsertTurnsBatches(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "call_transcript_turns"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	conf := 0.9
	err := store.InsertTurns(context.Background(), "CA1", []internal_session.TranscriptTurn{
		{Sequence: 1, Speaker: internal_session.SpeakerCaller, Text: "Hi there", Source: internal_session.SourceLiveStream, Confidence: &conf, IsFinal: true},
		{Sequence: 2, Speaker: internal_session.SpeakerAgent, Text: "Hello!", Source: internal_session.SourceLiveStream, IsFinal: true},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInsertTurnsEmptyIsNoop(t *testing.T) {
	store, mock := newMockStore(t)

	if err := store.InsertTurns(context.Background(), "CA1", nil); err != nil {
		t.Fatalf("empty insert must be a no-op: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no statements expected: %v", err)
	}
}

func TestHasCommittedTurns(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "call_transcript_turns"`).
		WithArgs("CA1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	ok, err := store.HasCommittedTurns(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !ok {
		t.Error("expected committed turns to be reported")
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "call_transcript_turns"`).
		WithArgs("CA2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err = store.HasCommittedTurns(context.Background(), "CA2")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if ok {
		t.Error("expected no committed turns")
	}
}

func TestGetTurnsInSequenceOrder(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "call_id", "sequence", "speaker", "text", "source", "confidence", "is_final"}).
		AddRow(10, "CA1", 1, "caller", "Hi there", "live_stream", 0.9, true).
		AddRow(11, "CA1", 2, "agent", "Hello!", "live_stream", nil, true).
		AddRow(12, "CA1", 3, "caller", "recorded copy", "post_call_batch", 0.8, true)

	mock.ExpectQuery(`SELECT \* FROM "call_transcript_turns" WHERE call_id = .+ ORDER BY sequence asc`).
		WithArgs("CA1").
		WillReturnRows(rows)

	turns, err := store.GetTurns(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Speaker != internal_session.SpeakerCaller || turns[0].Sequence != 1 {
		t.Errorf("unexpected first turn: %+v", turns[0])
	}
	if turns[2].Source != internal_session.SourcePostCallBatch {
		t.Errorf("expected batch source on last turn: %+v", turns[2])
	}
}
