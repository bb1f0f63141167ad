package sinks

import (
	"context"
	"database/sql"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/spatialmath"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS odometry (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	time_ns INTEGER NOT NULL,
	frame_id TEXT NOT NULL,
	x REAL, y REAL, z REAL,
	qx REAL, qy REAL, qz REAL, qw REAL
);
CREATE TABLE IF NOT EXISTS transforms (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	time_ns INTEGER NOT NULL,
	parent TEXT NOT NULL,
	child TEXT NOT NULL,
	x REAL, y REAL, z REAL,
	qx REAL, qy REAL, qz REAL, qw REAL
);
CREATE INDEX IF NOT EXISTS idx_odometry_session_time ON odometry (session_id, time_ns);
`

// SQLite stores every publish in a sqlite database. Each opened sink is a new session.
type SQLite struct {
	db      *sql.DB
	session string
}

// OpenSQLite opens or creates the database at path and starts a session.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "cannot configure database"), db.Close())
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "cannot create schema"), db.Close())
	}

	s := &SQLite{db: db, session: uuid.New().String()}
	if _, err := db.ExecContext(ctx, `INSERT INTO sessions (session_id, started_at) VALUES (?, ?)`,
		s.session, time.Now().UnixNano()); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "cannot start session"), db.Close())
	}
	return s, nil
}

// Session returns the id rows from this sink are tagged with.
func (s *SQLite) Session() string {
	return s.session
}

// PublishOdometry inserts the record.
func (s *SQLite) PublishOdometry(ctx context.Context, rec odometry.Record) error {
	pt := rec.Pose.Point()
	q := rec.Pose.Orientation().Quaternion()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO odometry (session_id, time_ns, frame_id, x, y, z, qx, qy, qz, qw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session, rec.Time.UnixNano(), rec.FrameID, pt.X, pt.Y, pt.Z, q.Imag, q.Jmag, q.Kmag, q.Real,
	)
	return err
}

// BroadcastTransform inserts the transform.
func (s *SQLite) BroadcastTransform(ctx context.Context, tf referenceframe.StampedTransform) error {
	pt := tf.Pose.Point()
	q := tf.Pose.Orientation().Quaternion()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transforms (session_id, time_ns, parent, child, x, y, z, qx, qy, qz, qw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.session, tf.Time.UnixNano(), tf.Parent, tf.Child, pt.X, pt.Y, pt.Z, q.Imag, q.Jmag, q.Kmag, q.Real,
	)
	return err
}

// Records returns the odometry records of a session in time order.
func (s *SQLite) Records(ctx context.Context, session string) ([]odometry.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time_ns, frame_id, x, y, z, qx, qy, qz, qw FROM odometry
		WHERE session_id = ? ORDER BY time_ns, id`, session)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []odometry.Record
	for rows.Next() {
		var (
			timeNs  int64
			frameID string
			pt      r3.Vector
			q       quat.Number
		)
		if err := rows.Scan(&timeNs, &frameID, &pt.X, &pt.Y, &pt.Z, &q.Imag, &q.Jmag, &q.Kmag, &q.Real); err != nil {
			return nil, err
		}
		o := spatialmath.Quaternion(q)
		records = append(records, odometry.Record{
			Time:    time.Unix(0, timeNs).UTC(),
			FrameID: frameID,
			Pose:    spatialmath.NewPose(pt, &o),
		})
	}
	return records, rows.Err()
}

// TransformCount returns how many transforms a session stored.
func (s *SQLite) TransformCount(ctx context.Context, session string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transforms WHERE session_id = ?`, session).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLite) Close(ctx context.Context) error {
	return s.db.Close()
}
