package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("public_id", "week").
		From("games").
		Where(Eq("season", 2025), Expr("week >= ?", 3), IsNull("deleted_at")).
		OrderBy("week", "kickoff_at").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT public_id, week FROM games WHERE season = $1 AND week >= $2 AND deleted_at IS NULL ORDER BY week, kickoff_at"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != 2025 || args[1] != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := Select().From("games").ToSQL(); err == nil {
		t.Fatalf("expected missing columns to be rejected")
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("missing_pick_penalties").
		Columns("league_public_id", "member_public_id", "week").
		Values("nfl-2025", "m1", 4).
		Suffix("ON CONFLICT DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO missing_pick_penalties (league_public_id, member_public_id, week) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[2] != 4 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder_CompareAndSwap(t *testing.T) {
	query, args, err := Update("picks").
		Set("is_correct", false).
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "p1"), Expr("is_correct IS NOT DISTINCT FROM ?", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE picks SET is_correct = $1, updated_at = NOW() WHERE public_id = $2 AND is_correct IS NOT DISTINCT FROM $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != false || args[1] != "p1" || args[2] != nil {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("missing_pick_penalties").
		Where(Eq("league_public_id", "nfl-2025"), Eq("week", 4)).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM missing_pick_penalties WHERE league_public_id = $1 AND week = $2" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("picks").ToSQL(); err == nil {
		t.Fatalf("expected unconditional delete to be rejected")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		PublicID  string    `db:"public_id"`
		Week      int       `db:"week"`
		Ignored   string    `db:"-"`
		CreatedAt time.Time `db:"created_at,omitempty"`
		internal  string
	}

	created := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	query, args, err := InsertModel("adjustments", row{PublicID: "a1", Week: 2, CreatedAt: created, internal: "x"}, "RETURNING id")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO adjustments (public_id, week, created_at) VALUES ($1, $2, $3) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "a1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModel("adjustments", (*row)(nil), ""); err == nil {
		t.Fatalf("expected nil model error")
	}
}
