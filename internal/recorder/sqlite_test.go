package recorder

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"SwingSentinel/internal/model"
)

type SQLiteRecorderTestSuite struct {
	suite.Suite
	rec *SQLiteRecorder
}

func TestSQLiteRecorderSuite(t *testing.T) {
	suite.Run(t, new(SQLiteRecorderTestSuite))
}

func (suite *SQLiteRecorderTestSuite) SetupTest() {
	rec, err := NewSQLiteRecorder(filepath.Join(suite.T().TempDir(), "history.db"), zap.NewNop())
	suite.Require().NoError(err)
	suite.rec = rec
}

func (suite *SQLiteRecorderTestSuite) TearDownTest() {
	suite.NoError(suite.rec.Close())
}

func (suite *SQLiteRecorderTestSuite) TestClassificationsStoreNullRSI() {
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	err := suite.rec.RecordClassifications(context.Background(), at, []model.Classification{
		{Symbol: "A", Price: 10, RSI: optional.Some(31.5), Label: model.LabelBuy, Time: at},
		{Symbol: "B", Price: 20, RSI: optional.None[float64](), Label: model.LabelNone, Time: at},
	})
	suite.Require().NoError(err)

	rows, err := suite.rec.db.Query(`SELECT symbol, rsi, label FROM classifications ORDER BY id`)
	suite.Require().NoError(err)
	defer rows.Close()

	type row struct {
		symbol string
		rsi    sql.NullFloat64
		label  string
	}
	var got []row
	for rows.Next() {
		var r row
		suite.Require().NoError(rows.Scan(&r.symbol, &r.rsi, &r.label))
		got = append(got, r)
	}
	suite.Require().Len(got, 2)
	suite.Equal(row{"A", sql.NullFloat64{Float64: 31.5, Valid: true}, "BUY"}, got[0])
	suite.Equal(row{"B", sql.NullFloat64{}, "NONE"}, got[1])
}

func (suite *SQLiteRecorderTestSuite) TestExits() {
	exits := []model.ExitEvent{
		{PositionID: "p1", Symbol: "A", Action: model.ExitStopLoss, ExitTime: time.Now()},
		{PositionID: "p2", Symbol: "B", Action: model.ExitProfitBook, ExitTime: time.Now()},
	}
	suite.Require().NoError(suite.rec.RecordExits(context.Background(), exits))

	var n int
	suite.Require().NoError(suite.rec.db.QueryRow(`SELECT COUNT(*) FROM exit_events`).Scan(&n))
	suite.Equal(2, n)

	var action string
	suite.Require().NoError(suite.rec.db.QueryRow(`SELECT action FROM exit_events WHERE position_id = 'p2'`).Scan(&action))
	suite.Equal("PROFIT_BOOK", action)
}

func (suite *SQLiteRecorderTestSuite) TestMigrationIsIdempotent() {
	suite.NoError(suite.rec.migrate())
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	ctx := context.Background()
	if err := r.RecordClassifications(ctx, time.Now(), nil); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordExits(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}
