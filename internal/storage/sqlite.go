package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/gravsim/internal/dynamo"

	_ "github.com/mattn/go-sqlite3"
)

const snapshotSchema = `
CREATE TABLE particles (
	step 	INTEGER,
	time 	REAL,
	id 		INTEGER,
	mass 	REAL,
	x 		REAL,
	y 		REAL,
	vx 		REAL,
	vy 		REAL);
`

const (
	insertParticle = `INSERT INTO particles VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	queryStep      = `SELECT mass, x, y, vx, vy FROM particles WHERE step = ? ORDER BY id ASC;`
	querySteps     = `SELECT DISTINCT step FROM particles ORDER BY step ASC;`
)

var ErrDBExists = errors.New("storage: snapshot database already exists")

// SnapshotDB writes every output snapshot to a sqlite file, one row per
// particle per output step. Each snapshot is one transaction.
type SnapshotDB struct {
	db     *sql.DB
	insert *sql.Stmt
}

// CreateSnapshotDB refuses to reuse an existing file.
func CreateSnapshotDB(filename string) (*SnapshotDB, error) {
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDBExists, filename)
	}

	db, err := sql.Open("sqlite3", "file:"+filename+"?_journal_mode=OFF&_synchronous=OFF")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, err
	}
	stmt, err := db.Prepare(insertParticle)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SnapshotDB{db: db, insert: stmt}, nil
}

// OpenSnapshotDB opens an existing database for reading.
func OpenSnapshotDB(filename string) (*SnapshotDB, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+filename+"?mode=ro")
	if err != nil {
		return nil, err
	}
	return &SnapshotDB{db: db}, nil
}

func (s *SnapshotDB) OnOutput(sys *dynamo.System, sample dynamo.Sample) error {
	if s.insert == nil {
		return fmt.Errorf("storage: snapshot database is read-only")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(s.insert)

	for i := 0; i < sys.Len(); i++ {
		p := sys.At(i)
		if _, err := stmt.Exec(sample.Step, sample.Time, i, p.Mass, p.Pos.X, p.Pos.Y, p.Vel.X, p.Vel.Y); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SnapshotDB) Steps() ([]int, error) {
	rows, err := s.db.Query(querySteps)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make([]int, 0)
	for rows.Next() {
		var step int
		if err := rows.Scan(&step); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// Snapshot returns the particles recorded at step in index order.
func (s *SnapshotDB) Snapshot(step int) ([]dynamo.Particle, error) {
	rows, err := s.db.Query(queryStep, step)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ps := make([]dynamo.Particle, 0)
	for rows.Next() {
		var p dynamo.Particle
		if err := rows.Scan(&p.Mass, &p.Pos.X, &p.Pos.Y, &p.Vel.X, &p.Vel.Y); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, fmt.Errorf("storage: no snapshot at step %d", step)
	}
	return ps, nil
}

func (s *SnapshotDB) Close() error {
	if s.insert != nil {
		s.insert.Close()
	}
	return s.db.Close()
}

var (
	_ dynamo.Observer = (*SnapshotDB)(nil)
	_ dynamo.Observer = (*Run)(nil)
)
