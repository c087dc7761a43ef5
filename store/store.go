// Package store exports a run's canonical rows and aggregates to a SQLite
// database for ad-hoc querying.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/zalepa/urnas/aggregate"
	"github.com/zalepa/urnas/normalize"
	"github.com/zalepa/urnas/outfile"
)

const schema = `
CREATE TABLE votes (
	municipio TEXT    NOT NULL,
	zona      INTEGER NOT NULL,
	secao     INTEGER NOT NULL,
	cargo     TEXT    NOT NULL,
	turno     INTEGER NOT NULL,
	candidato TEXT    NOT NULL,
	partido   TEXT    NOT NULL,
	votos     INTEGER NOT NULL
);
CREATE INDEX idx_votes_group ON votes(municipio, zona, cargo, turno);

CREATE TABLE sections (
	municipio TEXT    NOT NULL,
	zona      INTEGER NOT NULL,
	secoes    INTEGER NOT NULL,
	PRIMARY KEY (municipio, zona)
);

CREATE TABLE zone_top (
	municipio TEXT    NOT NULL,
	zona      INTEGER NOT NULL,
	cargo     TEXT    NOT NULL,
	turno     INTEGER NOT NULL,
	posicao   INTEGER NOT NULL,
	candidato TEXT    NOT NULL,
	partido   TEXT    NOT NULL,
	votos     INTEGER NOT NULL,
	total     INTEGER NOT NULL,
	pct       REAL    NOT NULL,
	PRIMARY KEY (municipio, zona, cargo, turno, posicao)
);

CREATE TABLE winners (
	municipio TEXT    NOT NULL,
	cargo     TEXT    NOT NULL,
	turno     INTEGER NOT NULL,
	candidato TEXT    NOT NULL,
	partido   TEXT    NOT NULL,
	votos     INTEGER NOT NULL,
	total     INTEGER NOT NULL,
	pct       REAL    NOT NULL,
	PRIMARY KEY (municipio, cargo, turno)
);
`

// Open opens an existing export for reading.
func Open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return open(path)
}

func open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Export writes rows and res to a fresh database at path. The previous file,
// if any, is replaced only once the new database is complete.
func Export(ctx context.Context, path string, rows []normalize.Row, res aggregate.Result) error {
	err := outfile.Replace(path, func(tmp string) error {
		db, err := open(tmp)
		if err != nil {
			return err
		}
		if err := fill(ctx, db, rows, res); err != nil {
			db.Close()
			return err
		}
		return db.Close()
	})
	if err != nil {
		return fmt.Errorf("export sqlite: %w", err)
	}
	return nil
}

func fill(ctx context.Context, db *sql.DB, rows []normalize.Row, res aggregate.Result) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertAll(ctx, tx,
		`INSERT INTO votes VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(rows),
		func(i int) []any {
			r := rows[i]
			return []any{r.Municipality, r.Zone, r.Section, string(r.Office), r.Round, r.Candidate, r.Party, r.Votes}
		}); err != nil {
		return fmt.Errorf("insert votes: %w", err)
	}

	if err := insertAll(ctx, tx,
		`INSERT INTO sections VALUES (?, ?, ?)`, len(res.Zones),
		func(i int) []any {
			z := res.Zones[i]
			return []any{z.Municipality, z.Zone, z.Sections}
		}); err != nil {
		return fmt.Errorf("insert sections: %w", err)
	}

	if err := insertAll(ctx, tx,
		`INSERT INTO zone_top VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(res.Top),
		func(i int) []any {
			r := res.Top[i]
			return []any{r.Municipality, r.Zone, string(r.Office), r.Round, r.Rank, r.Candidate, r.Party, r.Votes, r.Total, r.Share}
		}); err != nil {
		return fmt.Errorf("insert zone_top: %w", err)
	}

	if err := insertAll(ctx, tx,
		`INSERT INTO winners VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(res.Winners),
		func(i int) []any {
			r := res.Winners[i]
			return []any{r.Municipality, string(r.Office), r.Round, r.Candidate, r.Party, r.Votes, r.Total, r.Share}
		}); err != nil {
		return fmt.Errorf("insert winners: %w", err)
	}

	return tx.Commit()
}

func insertAll(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// ZoneTotals recomputes the vote total of every (municipality, zone, office,
// round) group from the votes table.
func ZoneTotals(ctx context.Context, db *sql.DB) ([]aggregate.GroupTotal, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT municipio, zona, cargo, turno, SUM(votos)
		FROM votes
		GROUP BY municipio, zona, cargo, turno
		ORDER BY municipio, zona, cargo, turno`)
	if err != nil {
		return nil, fmt.Errorf("query zone totals: %w", err)
	}
	defer rows.Close()

	var out []aggregate.GroupTotal
	for rows.Next() {
		var (
			t      aggregate.GroupTotal
			office string
		)
		if err := rows.Scan(&t.Municipality, &t.Zone, &office, &t.Round, &t.Votes); err != nil {
			return nil, fmt.Errorf("scan zone totals: %w", err)
		}
		t.Office = normalize.Office(office)
		out = append(out, t)
	}
	return out, rows.Err()
}
