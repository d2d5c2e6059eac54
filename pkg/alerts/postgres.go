package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage is a Storage implementation over the price_alerts and
// availability_alerts tables. Status transitions are single UPDATE
// statements guarded on the current status, so the claim step stays atomic
// across evaluator instances sharing the database.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a Postgres-backed alert storage. Schema is
// managed by the goose migrations in the migrations directory.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

const (
	priceColumns        = `id, user_id, campsite_id, target_price, equipment_type, status, claimed_at, created_at`
	availabilityColumns = `id, user_id, campsite_id, check_in_date, check_out_date, equipment_type, status, claimed_at, created_at`
)

func (s *PostgresStorage) CreatePriceAlert(ctx context.Context, a PriceAlert) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO price_alerts (`+priceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.CampsiteID, a.TargetPrice, a.EquipmentType,
		a.Status, a.ClaimedAt, a.CreatedAt,
	)
	return err
}

func (s *PostgresStorage) CreateAvailabilityAlert(ctx context.Context, a AvailabilityAlert) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO availability_alerts (`+availabilityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.CampsiteID, a.CheckIn, a.CheckOut, a.EquipmentType,
		a.Status, a.ClaimedAt, a.CreatedAt,
	)
	return err
}

func scanPriceAlert(row pgx.Row) (*PriceAlert, error) {
	var a PriceAlert
	err := row.Scan(&a.ID, &a.UserID, &a.CampsiteID, &a.TargetPrice,
		&a.EquipmentType, &a.Status, &a.ClaimedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAvailabilityAlert(row pgx.Row) (*AvailabilityAlert, error) {
	var a AvailabilityAlert
	err := row.Scan(&a.ID, &a.UserID, &a.CampsiteID, &a.CheckIn, &a.CheckOut,
		&a.EquipmentType, &a.Status, &a.ClaimedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStorage) GetPriceAlert(ctx context.Context, userID, id string) (*PriceAlert, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+priceColumns+`
		FROM price_alerts
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	a, err := scanPriceAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	return a, err
}

func (s *PostgresStorage) GetAvailabilityAlert(ctx context.Context, userID, id string) (*AvailabilityAlert, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+availabilityColumns+`
		FROM availability_alerts
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	a, err := scanAvailabilityAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	return a, err
}

func (s *PostgresStorage) ListPriceAlerts(ctx context.Context, userID string) ([]PriceAlert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+priceColumns+`
		FROM price_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectPriceAlerts(rows)
}

func (s *PostgresStorage) ListAvailabilityAlerts(ctx context.Context, userID string) ([]AvailabilityAlert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+availabilityColumns+`
		FROM availability_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectAvailabilityAlerts(rows)
}

func (s *PostgresStorage) ActivePriceAlerts(ctx context.Context) ([]PriceAlert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+priceColumns+`
		FROM price_alerts
		WHERE status = $1
		ORDER BY created_at DESC`,
		StatusActive,
	)
	if err != nil {
		return nil, err
	}
	return collectPriceAlerts(rows)
}

func (s *PostgresStorage) ActiveAvailabilityAlerts(ctx context.Context) ([]AvailabilityAlert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+availabilityColumns+`
		FROM availability_alerts
		WHERE status = $1
		ORDER BY created_at DESC`,
		StatusActive,
	)
	if err != nil {
		return nil, err
	}
	return collectAvailabilityAlerts(rows)
}

func collectPriceAlerts(rows pgx.Rows) ([]PriceAlert, error) {
	defer rows.Close()
	list := []PriceAlert{}
	for rows.Next() {
		a, err := scanPriceAlert(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func collectAvailabilityAlerts(rows pgx.Rows) ([]AvailabilityAlert, error) {
	defer rows.Close()
	list := []AvailabilityAlert{}
	for rows.Next() {
		a, err := scanAvailabilityAlert(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (s *PostgresStorage) TransitionPriceAlert(ctx context.Context, id string, from, to Status) error {
	return s.transition(ctx, "price_alerts", id, from, to)
}

func (s *PostgresStorage) TransitionAvailabilityAlert(ctx context.Context, id string, from, to Status) error {
	return s.transition(ctx, "availability_alerts", id, from, to)
}

func (s *PostgresStorage) transition(ctx context.Context, table, id string, from, to Status) error {
	// The guard on the current status is the compare-and-swap: with two
	// evaluators racing, exactly one UPDATE matches.
	tag, err := s.pool.Exec(ctx, `
		UPDATE `+table+`
		SET status = $3,
		    claimed_at = CASE WHEN $3 = 'claimed' THEN now() ELSE NULL END
		WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAlertNotFound
	}
	return ErrAlertNotTransitionable
}

func (s *PostgresStorage) ExpireAvailabilityAlerts(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE availability_alerts
		SET status = $1
		WHERE status = $2 AND check_in_date < $3`,
		StatusExpired, StatusActive, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStorage) ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error) {
	var released int64
	for _, table := range []string{"price_alerts", "availability_alerts"} {
		tag, err := s.pool.Exec(ctx, `
			UPDATE `+table+`
			SET status = $1, claimed_at = NULL
			WHERE status = $2 AND claimed_at < $3`,
			StatusActive, StatusClaimed, cutoff,
		)
		if err != nil {
			return released, err
		}
		released += tag.RowsAffected()
	}
	return released, nil
}

var _ Storage = (*PostgresStorage)(nil)
