package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chess-vn/econgames/internal/domains/entities"
	"github.com/chess-vn/econgames/internal/domains/interfaces"
	"github.com/mattn/go-sqlite3"
)

const matchColumns = `id, game_type, game_mode, status,
	player1_fingerprint, player1_ip, player1_country, player1_city, player1_joined_at,
	player2_fingerprint, player2_ip, player2_country, player2_city, player2_joined_at,
	max_rounds, stake, created_at, updated_at`

const roundColumns = `match_id, number, player1_action, player2_action,
	player1_coins_to_keep, player1_coins_to_offer, player1_response,
	player2_coins_to_keep, player2_coins_to_offer, player2_response,
	player1_score, player2_score, settled, started_at, ended_at`

type sqliteRepository struct {
	db *sql.DB
}

func NewSqliteRepository(db *sql.DB) interfaces.IMatchRepository {
	return &sqliteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *sqliteRepository) PutMatch(ctx context.Context, match entities.Match) error {
	args := []any{match.Id, match.GameType, match.GameMode, match.Status}
	args = append(args, playerArgs(match.Player1)...)
	args = append(args, playerArgs(match.Player2)...)
	args = append(args, match.MaxRounds, match.Stake, match.CreatedAt, match.UpdatedAt)

	_, err := r.db.ExecContext(ctx, `INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			player1_fingerprint = excluded.player1_fingerprint,
			player1_ip = excluded.player1_ip,
			player1_country = excluded.player1_country,
			player1_city = excluded.player1_city,
			player1_joined_at = excluded.player1_joined_at,
			player2_fingerprint = excluded.player2_fingerprint,
			player2_ip = excluded.player2_ip,
			player2_country = excluded.player2_country,
			player2_city = excluded.player2_city,
			player2_joined_at = excluded.player2_joined_at,
			updated_at = excluded.updated_at`, args...)
	if err != nil {
		return fmt.Errorf("failed to put match: %w", err)
	}
	return nil
}

func (r *sqliteRepository) GetMatch(ctx context.Context, matchId string) (entities.Match, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, matchId)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Match{}, interfaces.ErrMatchNotFound
	}
	if err != nil {
		return entities.Match{}, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

func (r *sqliteRepository) DeleteMatch(ctx context.Context, matchId string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE match_id = ?`, matchId); err != nil {
		return fmt.Errorf("failed to delete rounds: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, matchId); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return tx.Commit()
}

func (r *sqliteRepository) CreateRound(ctx context.Context, round entities.Round) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO rounds (`+roundColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, roundArgs(round)...)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
		return interfaces.ErrRoundExists
	}
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

func (r *sqliteRepository) PutRound(ctx context.Context, round entities.Round) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO rounds (`+roundColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, roundArgs(round)...)
	if err != nil {
		return fmt.Errorf("failed to put round: %w", err)
	}
	return nil
}

func (r *sqliteRepository) FetchRounds(ctx context.Context, matchId string) ([]entities.Round, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE match_id = ? ORDER BY number`, matchId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rounds: %w", err)
	}
	defer rows.Close()

	var rounds []entities.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func (r *sqliteRepository) FetchMatches(ctx context.Context) ([]entities.Match, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}
	defer rows.Close()

	var matches []entities.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func playerArgs(p *entities.Player) []any {
	if p == nil {
		return []any{nil, nil, nil, nil, nil}
	}
	return []any{p.Fingerprint, p.Origin.Ip, p.Origin.Country, p.Origin.City, p.JoinedAt}
}

func roundArgs(round entities.Round) []any {
	return []any{
		round.MatchId, round.Number, round.Player1Action, round.Player2Action,
		round.Player1CoinsToKeep, round.Player1CoinsToOffer, round.Player1Response,
		round.Player2CoinsToKeep, round.Player2CoinsToOffer, round.Player2Response,
		round.Player1Score, round.Player2Score, round.Settled, round.StartedAt, round.EndedAt,
	}
}

type playerColumns struct {
	fingerprint, ip, country, city sql.NullString
	joinedAt                       sql.NullTime
}

func (c playerColumns) player() *entities.Player {
	if !c.fingerprint.Valid {
		return nil
	}
	return &entities.Player{
		Fingerprint: c.fingerprint.String,
		Origin: entities.Origin{
			Ip:      c.ip.String,
			Country: c.country.String,
			City:    c.city.String,
		},
		JoinedAt: c.joinedAt.Time,
	}
}

func scanMatch(s scanner) (entities.Match, error) {
	var (
		match  entities.Match
		p1, p2 playerColumns
	)
	err := s.Scan(
		&match.Id, &match.GameType, &match.GameMode, &match.Status,
		&p1.fingerprint, &p1.ip, &p1.country, &p1.city, &p1.joinedAt,
		&p2.fingerprint, &p2.ip, &p2.country, &p2.city, &p2.joinedAt,
		&match.MaxRounds, &match.Stake, &match.CreatedAt, &match.UpdatedAt,
	)
	if err != nil {
		return entities.Match{}, err
	}
	match.Player1 = p1.player()
	match.Player2 = p2.player()
	return match, nil
}

func scanRound(s scanner) (entities.Round, error) {
	var (
		round                entities.Round
		action1, action2     sql.NullString
		response1, response2 sql.NullString
		keep1, offer1        sql.NullInt64
		keep2, offer2        sql.NullInt64
		endedAt              sql.NullTime
	)
	err := s.Scan(
		&round.MatchId, &round.Number, &action1, &action2,
		&keep1, &offer1, &response1,
		&keep2, &offer2, &response2,
		&round.Player1Score, &round.Player2Score, &round.Settled, &round.StartedAt, &endedAt,
	)
	if err != nil {
		return entities.Round{}, err
	}
	round.Player1Action = nullString(action1)
	round.Player2Action = nullString(action2)
	round.Player1Response = nullString(response1)
	round.Player2Response = nullString(response2)
	round.Player1CoinsToKeep = nullInt(keep1)
	round.Player1CoinsToOffer = nullInt(offer1)
	round.Player2CoinsToKeep = nullInt(keep2)
	round.Player2CoinsToOffer = nullInt(offer2)
	if endedAt.Valid {
		t := endedAt.Time
		round.EndedAt = &t
	}
	return round, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
