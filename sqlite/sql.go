package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hoshinonyaruko/snake-core/structs"
	_ "github.com/mattn/go-sqlite3"
)

const createHighScoreTableSQL = `
CREATE TABLE IF NOT EXISTS HighScore (
    ID INTEGER PRIMARY KEY CHECK (ID = 1),
    Score INTEGER NOT NULL
);
`

const createGamesTableSQL = `
CREATE TABLE IF NOT EXISTS Games (
    SessionID TEXT PRIMARY KEY,
    Score INTEGER,
    ApplesEaten INTEGER,
    PowerUpsCollected INTEGER,
    Length INTEGER,
    TimeElapsed INTEGER,
    Reason TEXT,
    Difficulty TEXT,
    EndedAt INTEGER
);
`

const createGamesIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_games_ended ON Games (EndedAt);
`

func executeSQL(db *sql.DB, sqlStatement string) error {
	if _, err := db.Exec(sqlStatement); err != nil {
		return fmt.Errorf("executing %q: %w", sqlStatement, err)
	}
	return nil
}

// Open 打开数据库并建表
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := InitializeDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func InitializeDatabase(db *sql.DB) error {
	for _, stmt := range []string{createHighScoreTableSQL, createGamesTableSQL, createGamesIndexSQL} {
		if err := executeSQL(db, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Store persists the high score and finished games.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// LoadHighScore returns ok=false when no score has been saved.
func (s *Store) LoadHighScore() (int, bool, error) {
	var score int
	err := s.db.QueryRow("SELECT Score FROM HighScore WHERE ID = 1").Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

func (s *Store) SaveHighScore(score int) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO HighScore (ID, Score) VALUES (1, ?)", score)
	return err
}

// RecordGame stores a finished game and raises the high score if needed.
func (s *Store) RecordGame(rec structs.GameRecord) error {
	// 开启事务
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO Games
		(SessionID, Score, ApplesEaten, PowerUpsCollected, Length, TimeElapsed, Reason, Difficulty, EndedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Score, rec.ApplesEaten, rec.PowerUpsCollected, rec.Length,
		rec.TimeElapsed, rec.Reason, string(rec.Difficulty), rec.EndedAt)
	if err != nil {
		tx.Rollback()
		return err
	}

	// 最高分只升不降
	_, err = tx.Exec(`INSERT INTO HighScore (ID, Score) VALUES (1, ?)
		ON CONFLICT(ID) DO UPDATE SET Score = MAX(Score, excluded.Score)`, rec.Score)
	if err != nil {
		tx.Rollback()
		return err
	}

	// 提交事务
	return tx.Commit()
}

// RecentGames returns up to limit games, newest first.
func (s *Store) RecentGames(limit int) ([]structs.GameRecord, error) {
	rows, err := s.db.Query(`SELECT SessionID, Score, ApplesEaten, PowerUpsCollected, Length,
		TimeElapsed, Reason, Difficulty, EndedAt FROM Games ORDER BY EndedAt DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []structs.GameRecord{}
	for rows.Next() {
		var rec structs.GameRecord
		var difficulty string
		if err := rows.Scan(&rec.SessionID, &rec.Score, &rec.ApplesEaten, &rec.PowerUpsCollected,
			&rec.Length, &rec.TimeElapsed, &rec.Reason, &difficulty, &rec.EndedAt); err != nil {
			return nil, err
		}
		rec.Difficulty = structs.Difficulty(difficulty)
		records = append(records, rec)
	}
	return records, rows.Err()
}
