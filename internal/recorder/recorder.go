package recorder

import (
	"database/sql"
	_ "embed"
	"fmt"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/sensor"
	log "github.com/sirupsen/logrus"
	"strings"

	_ "modernc.org/sqlite"
)

// schema.sql holds one row per frame, keyed by run id and sequence number.
//
//go:embed schema.sql
var schemaSQL string

// frame value columns, in bird offset order
var valueColumns = []string{
	"x", "y", "z",
	"azimuth", "elevation", "roll",
	"q0", "q1", "q2", "q3",
	"m11", "m12", "m13",
	"m21", "m22", "m23",
	"m31", "m32", "m33",
}

var (
	insertSQL = fmt.Sprintf(
		"INSERT OR REPLACE INTO frames (run_id, seq, tracker_id, sys_ticks, device_time, data_format, scale, %s) VALUES (?, ?, ?, ?, ?, ?, ?%s)",
		strings.Join(valueColumns, ", "),
		strings.Repeat(", ?", len(valueColumns)),
	)
	selectSQL = fmt.Sprintf(
		"SELECT seq, tracker_id, sys_ticks, device_time, data_format, scale, %s FROM frames WHERE run_id = ? ORDER BY seq",
		strings.Join(valueColumns, ", "),
	)
)

type Recorder struct {
	*sql.DB
}

func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create frames table: %w", err)
	}
	log.Debugf("recorder database %s ready", path)
	return &Recorder{db}, nil
}

// Write stores one frame under runID. Writing the same (runID, seq) twice
// keeps the last one.
func (r *Recorder) Write(runID string, f *sensor.FrameWrapped) error {
	values := make([]int16, bird.NumValues)
	f.Flatten(values)

	args := make([]interface{}, 0, 7+len(values))
	args = append(args, runID, int64(f.Seq), f.ID, f.SysTicks, int64(f.DeviceTime), int(f.Format), f.Scale)
	for _, v := range values {
		args = append(args, int64(v))
	}
	if _, err := r.Exec(insertSQL, args...); err != nil {
		return fmt.Errorf("failed to insert frame %d: %w", f.Seq, err)
	}
	return nil
}

// WriteBatch stores frames in a single transaction.
func (r *Recorder) WriteBatch(runID string, frames []*sensor.FrameWrapped) error {
	tx, err := r.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	values := make([]int16, bird.NumValues)
	for _, f := range frames {
		f.Flatten(values)
		args := []interface{}{runID, int64(f.Seq), f.ID, f.SysTicks, int64(f.DeviceTime), int(f.Format), f.Scale}
		for _, v := range values {
			args = append(args, int64(v))
		}
		if _, err := stmt.Exec(args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert frame %d: %w", f.Seq, err)
		}
	}
	return tx.Commit()
}

func (r *Recorder) Count() (int64, error) {
	var n int64
	err := r.QueryRow("SELECT COUNT(*) FROM frames").Scan(&n)
	return n, err
}

// Frames loads every frame recorded under runID in sequence order.
func (r *Recorder) Frames(runID string) ([]sensor.FrameWrapped, error) {
	rows, err := r.Query(selectSQL, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []sensor.FrameWrapped
	for rows.Next() {
		var (
			f          sensor.FrameWrapped
			seq        int64
			deviceTime int64
			format     int
			values     = make([]int16, bird.NumValues)
		)
		dest := []interface{}{&seq, &f.ID, &f.SysTicks, &deviceTime, &format, &f.Scale}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		f.Frame = bird.FrameFromBuffer(values)
		f.Seq = uint64(seq)
		f.DeviceTime = uint32(deviceTime)
		f.Format = bird.DataFormat(format)
		res = append(res, f)
	}
	return res, rows.Err()
}
