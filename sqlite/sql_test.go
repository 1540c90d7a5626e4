package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/hoshinonyaruko/snake-core/structs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "snake.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestHighScoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.LoadHighScore(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := s.SaveHighScore(120); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveHighScore(90); err != nil {
		t.Fatal(err)
	}
	score, ok, err := s.LoadHighScore()
	if err != nil || !ok || score != 90 {
		t.Fatalf("LoadHighScore = %d, %v, %v; want 90, true, nil", score, ok, err)
	}
}

func TestRecordGameRaisesHighScoreOnly(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveHighScore(100); err != nil {
		t.Fatal(err)
	}

	games := []structs.GameRecord{
		{SessionID: "a", Score: 40, Length: 5, Reason: "wall collision", Difficulty: structs.Easy, EndedAt: 1000},
		{SessionID: "b", Score: 150, Length: 9, Reason: "self collision", Difficulty: structs.Hard, EndedAt: 2000},
		{SessionID: "c", Score: 70, Length: 6, Reason: "wall collision", Difficulty: structs.Medium, EndedAt: 3000},
	}
	for _, g := range games {
		if err := s.RecordGame(g); err != nil {
			t.Fatalf("RecordGame(%s): %v", g.SessionID, err)
		}
	}

	score, _, err := s.LoadHighScore()
	if err != nil || score != 150 {
		t.Fatalf("high score = %d (%v), want 150", score, err)
	}

	recent, err := s.RecentGames(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].SessionID != "c" || recent[1].SessionID != "b" {
		t.Fatalf("RecentGames = %+v", recent)
	}
	if recent[1].Difficulty != structs.Hard || recent[1].EndedAt != 2000 {
		t.Fatalf("record fields not preserved: %+v", recent[1])
	}
}

func TestRecentGamesEmpty(t *testing.T) {
	s := openTestStore(t)
	recent, err := s.RecentGames(10)
	if err != nil {
		t.Fatal(err)
	}
	if recent == nil || len(recent) != 0 {
		t.Fatalf("RecentGames on empty db = %#v, want empty slice", recent)
	}
}
