package plantrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const foreignKeyViolation = "23503"

// plantMissing turns a foreign key violation on the plant reference into ErrPlantMissing.
func plantMissing(err error, plantID int64) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("plant %d: %w", plantID, ErrPlantMissing)
	}
	return err
}

// PostgresStore implements plant.Store using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// WithinTx implements plant.Store.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx plant.Repos) error) error {
	return inTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, pgRepos{db: tx})
	})
}

func inTx(ctx context.Context, db dbtx, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Plants implements plant.Repos.
func (s *PostgresStore) Plants() plant.PlantRepository { return pgPlants{s.pool} }

// Reminders implements plant.Repos.
func (s *PostgresStore) Reminders() plant.ReminderRepository { return pgReminders{s.pool} }

// Events implements plant.Repos.
func (s *PostgresStore) Events() timeline.EventRepository { return pgEvents{s.pool} }

// Photos implements plant.Repos.
func (s *PostgresStore) Photos() timeline.PhotoRepository { return pgPhotos{s.pool} }

type pgRepos struct {
	db dbtx
}

func (r pgRepos) Plants() plant.PlantRepository { return pgPlants{r.db} }
func (r pgRepos) Reminders() plant.ReminderRepository { return pgReminders{r.db} }
func (r pgRepos) Events() timeline.EventRepository { return pgEvents{r.db} }
func (r pgRepos) Photos() timeline.PhotoRepository { return pgPhotos{r.db} }

const plantColumns = `id, owner_id, name, species, is_indoors, location_name, country, location_area,
	latitude, longitude, estimated_sun_hours, watering_frequency_days, last_watered_at,
	next_watering_date, notes, main_photo_path, created_at, updated_at`

type pgPlants struct {
	db dbtx
}

func (r pgPlants) Create(ctx context.Context, p plant.Plant) (plant.Plant, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO plants (owner_id, name, species, is_indoors, location_name, country, location_area,
			latitude, longitude, estimated_sun_hours, watering_frequency_days, last_watered_at,
			next_watering_date, notes, main_photo_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+plantColumns,
		p.OwnerID, p.Name, p.Species, p.IsIndoors, p.Location.Name, p.Location.Country, p.Location.Area,
		p.Location.Latitude, p.Location.Longitude, p.EstimatedSunHours, p.WateringFrequencyDays, p.LastWateredAt,
		p.NextWateringDate, p.Notes, p.MainPhotoPath, p.CreatedAt, p.UpdatedAt)
	return scanPlant(row)
}

func (r pgPlants) Update(ctx context.Context, p plant.Plant) (plant.Plant, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE plants SET
			name = $2, species = $3, is_indoors = $4, location_name = $5, country = $6, location_area = $7,
			latitude = $8, longitude = $9, estimated_sun_hours = $10, watering_frequency_days = $11,
			last_watered_at = $12, next_watering_date = $13, notes = $14, main_photo_path = $15, updated_at = $16
		WHERE id = $1
		RETURNING `+plantColumns,
		p.ID, p.Name, p.Species, p.IsIndoors, p.Location.Name, p.Location.Country, p.Location.Area,
		p.Location.Latitude, p.Location.Longitude, p.EstimatedSunHours, p.WateringFrequencyDays,
		p.LastWateredAt, p.NextWateringDate, p.Notes, p.MainPhotoPath, p.UpdatedAt)
	updated, err := scanPlant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return plant.Plant{}, fmt.Errorf("update plant %d: %w", p.ID, ErrPlantMissing)
	}
	return updated, err
}

func (r pgPlants) Get(ctx context.Context, id int64) (plant.Plant, bool, error) {
	return r.get(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = $1`, id)
}

func (r pgPlants) GetForUpdate(ctx context.Context, id int64) (plant.Plant, bool, error) {
	return r.get(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = $1 FOR UPDATE`, id)
}

func (r pgPlants) get(ctx context.Context, query string, id int64) (plant.Plant, bool, error) {
	p, err := scanPlant(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return plant.Plant{}, false, nil
	}
	if err != nil {
		return plant.Plant{}, false, err
	}
	return p, true, nil
}

func (r pgPlants) ListByOwner(ctx context.Context, ownerID string) ([]plant.Plant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+plantColumns+`
		FROM plants
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plant.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r pgPlants) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM plants WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r pgPlants) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM plants WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func scanPlant(row rowScanner) (plant.Plant, error) {
	var p plant.Plant
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.IsIndoors,
		&p.Location.Name, &p.Location.Country, &p.Location.Area,
		&p.Location.Latitude, &p.Location.Longitude,
		&p.EstimatedSunHours, &p.WateringFrequencyDays,
		&p.LastWateredAt, &p.NextWateringDate,
		&p.Notes, &p.MainPhotoPath, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return plant.Plant{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if p.LastWateredAt != nil {
		utc := p.LastWateredAt.UTC()
		p.LastWateredAt = &utc
	}
	return p, nil
}

const reminderColumns = `r.id, r.plant_id, r.type, r.due_date, r.completed_at, r.notes`

type pgReminders struct {
	db dbtx
}

func (r pgReminders) Create(ctx context.Context, rem plant.Reminder) (plant.Reminder, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO plant_reminders AS r (plant_id, type, due_date, completed_at, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+reminderColumns,
		rem.PlantID, string(rem.Type), rem.DueDate, rem.CompletedAt, rem.Notes)
	created, err := scanReminder(row)
	return created, plantMissing(err, rem.PlantID)
}

func (r pgReminders) Get(ctx context.Context, id int64) (plant.Reminder, bool, error) {
	rem, err := scanReminder(r.db.QueryRow(ctx, `SELECT `+reminderColumns+` FROM plant_reminders r WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return plant.Reminder{}, false, nil
	}
	if err != nil {
		return plant.Reminder{}, false, err
	}
	return rem, true, nil
}

func (r pgReminders) OpenWatering(ctx context.Context, plantID int64) (plant.Reminder, bool, error) {
	rem, err := scanReminder(r.db.QueryRow(ctx, `
		SELECT `+reminderColumns+`
		FROM plant_reminders r
		WHERE r.plant_id = $1 AND r.type = 'watering' AND r.completed_at IS NULL
		ORDER BY r.id
		LIMIT 1
	`, plantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return plant.Reminder{}, false, nil
	}
	if err != nil {
		return plant.Reminder{}, false, err
	}
	return rem, true, nil
}

func (r pgReminders) UpdateDueDate(ctx context.Context, id int64, due time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE plant_reminders SET due_date = $2 WHERE id = $1`, id, due)
	return err
}

func (r pgReminders) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE plant_reminders SET completed_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r pgReminders) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM plant_reminders WHERE id = $1`, id)
	return err
}

func (r pgReminders) ListByPlant(ctx context.Context, plantID int64) ([]plant.Reminder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM plant_reminders r
		WHERE r.plant_id = $1
		ORDER BY r.due_date, r.id
	`, plantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plant.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r pgReminders) Due(ctx context.Context, ownerID string, through time.Time) ([]plant.Reminder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reminderColumns+`, `+prefixed("p", plantColumns)+`
		FROM plant_reminders r
		JOIN plants p ON p.id = r.plant_id
		WHERE p.owner_id = $1 AND r.completed_at IS NULL AND r.due_date <= $2
		ORDER BY r.due_date, r.id
	`, ownerID, through)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plant.Reminder
	for rows.Next() {
		var (
			rem    plant.Reminder
			p      plant.Plant
			remTyp string
		)
		err := rows.Scan(
			&rem.ID, &rem.PlantID, &remTyp, &rem.DueDate, &rem.CompletedAt, &rem.Notes,
			&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.IsIndoors,
			&p.Location.Name, &p.Location.Country, &p.Location.Area,
			&p.Location.Latitude, &p.Location.Longitude,
			&p.EstimatedSunHours, &p.WateringFrequencyDays,
			&p.LastWateredAt, &p.NextWateringDate,
			&p.Notes, &p.MainPhotoPath, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		rem.Type = plant.ReminderType(remTyp)
		rem.Plant = &p
		out = append(out, rem)
	}
	return out, rows.Err()
}

func scanReminder(row rowScanner) (plant.Reminder, error) {
	var (
		rem    plant.Reminder
		remTyp string
	)
	if err := row.Scan(&rem.ID, &rem.PlantID, &remTyp, &rem.DueDate, &rem.CompletedAt, &rem.Notes); err != nil {
		return plant.Reminder{}, err
	}
	rem.Type = plant.ReminderType(remTyp)
	return rem, nil
}

const eventColumns = `e.id, e.plant_id, e.kind, e.title, e.description, e.created_at, e.photo_id, e.icon, e.accent`

const eventWithPhotoColumns = eventColumns + `,
	ph.id, ph.file_path, ph.taken_at, ph.analysis_summary, ph.health_score`

type pgEvents struct {
	db dbtx
}

func (r pgEvents) Append(ctx context.Context, evt timeline.Event) (timeline.Event, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO plant_timeline_events AS e (plant_id, kind, title, description, created_at, photo_id, icon, accent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+eventColumns,
		evt.PlantID, string(evt.Kind), evt.Title, evt.Description, evt.CreatedAt, evt.PhotoID, evt.Icon, evt.Accent)
	appended, err := scanEvent(row)
	return appended, plantMissing(err, evt.PlantID)
}

func (r pgEvents) ListByPlant(ctx context.Context, plantID int64) ([]timeline.Event, error) {
	return r.list(ctx, `
		SELECT `+eventWithPhotoColumns+`
		FROM plant_timeline_events e
		LEFT JOIN plant_photos ph ON ph.id = e.photo_id
		WHERE e.plant_id = $1
		ORDER BY e.created_at DESC, e.id DESC
	`, plantID)
}

func (r pgEvents) ListByPlants(ctx context.Context, plantIDs []int64) ([]timeline.Event, error) {
	return r.list(ctx, `
		SELECT `+eventWithPhotoColumns+`
		FROM plant_timeline_events e
		LEFT JOIN plant_photos ph ON ph.id = e.photo_id
		WHERE e.plant_id = ANY($1)
		ORDER BY e.created_at DESC, e.id DESC
	`, plantIDs)
}

func (r pgEvents) list(ctx context.Context, query string, arg any) ([]timeline.Event, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeline.Event
	for rows.Next() {
		var (
			evt     timeline.Event
			kind    string
			photoID *int64
			path    *string
			takenAt *time.Time
			summary *string
			score   *float64
		)
		err := rows.Scan(
			&evt.ID, &evt.PlantID, &kind, &evt.Title, &evt.Description, &evt.CreatedAt, &evt.PhotoID, &evt.Icon, &evt.Accent,
			&photoID, &path, &takenAt, &summary, &score,
		)
		if err != nil {
			return nil, err
		}
		evt.Kind = timeline.Kind(kind)
		evt.CreatedAt = evt.CreatedAt.UTC()
		if photoID != nil {
			evt.Photo = &timeline.Photo{
				ID:              *photoID,
				PlantID:         evt.PlantID,
				FilePath:        deref(path),
				TakenAt:         derefTime(takenAt),
				AnalysisSummary: deref(summary),
				HealthScore:     score,
			}
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (timeline.Event, error) {
	var (
		evt  timeline.Event
		kind string
	)
	if err := row.Scan(&evt.ID, &evt.PlantID, &kind, &evt.Title, &evt.Description, &evt.CreatedAt, &evt.PhotoID, &evt.Icon, &evt.Accent); err != nil {
		return timeline.Event{}, err
	}
	evt.Kind = timeline.Kind(kind)
	evt.CreatedAt = evt.CreatedAt.UTC()
	return evt, nil
}

const photoColumns = `id, plant_id, file_path, taken_at, analysis_summary, health_score`

type pgPhotos struct {
	db dbtx
}

func (r pgPhotos) CreateWithEvent(ctx context.Context, photo timeline.Photo, evt timeline.Event) (timeline.Photo, timeline.Event, error) {
	var (
		saved    timeline.Photo
		appended timeline.Event
	)
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		saved, err = scanPhoto(tx.QueryRow(ctx, `
			INSERT INTO plant_photos (plant_id, file_path, taken_at, analysis_summary, health_score)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+photoColumns,
			photo.PlantID, photo.FilePath, photo.TakenAt, photo.AnalysisSummary, photo.HealthScore))
		if err != nil {
			return fmt.Errorf("insert photo: %w", plantMissing(err, photo.PlantID))
		}
		photoID := saved.ID
		evt.PlantID = saved.PlantID
		evt.PhotoID = &photoID
		appended, err = pgEvents{tx}.Append(ctx, evt)
		if err != nil {
			return fmt.Errorf("insert photo event: %w", err)
		}
		return nil
	})
	return saved, appended, err
}

func (r pgPhotos) Get(ctx context.Context, id int64) (timeline.Photo, bool, error) {
	photo, err := scanPhoto(r.db.QueryRow(ctx, `SELECT `+photoColumns+` FROM plant_photos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return timeline.Photo{}, false, nil
	}
	if err != nil {
		return timeline.Photo{}, false, err
	}
	return photo, true, nil
}

func (r pgPhotos) ListByPlant(ctx context.Context, plantID int64) ([]timeline.Photo, error) {
	rows, err := r.db.Query(ctx, `SELECT `+photoColumns+` FROM plant_photos WHERE plant_id = $1 ORDER BY id DESC`, plantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timeline.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, photo)
	}
	return out, rows.Err()
}

func (r pgPhotos) DeleteWithEvents(ctx context.Context, id int64) (timeline.Photo, bool, error) {
	var (
		photo timeline.Photo
		found bool
	)
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM plant_timeline_events WHERE photo_id = $1`, id); err != nil {
			return fmt.Errorf("delete photo events: %w", err)
		}
		deleted, err := scanPhoto(tx.QueryRow(ctx, `DELETE FROM plant_photos WHERE id = $1 RETURNING `+photoColumns, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete photo: %w", err)
		}
		photo, found = deleted, true
		return nil
	})
	return photo, found, err
}

func scanPhoto(row rowScanner) (timeline.Photo, error) {
	var photo timeline.Photo
	if err := row.Scan(&photo.ID, &photo.PlantID, &photo.FilePath, &photo.TakenAt, &photo.AnalysisSummary, &photo.HealthScore); err != nil {
		return timeline.Photo{}, err
	}
	photo.TakenAt = photo.TakenAt.UTC()
	return photo, nil
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

var (
	_ plant.Store              = (*PostgresStore)(nil)
	_ plant.Repos              = pgRepos{}
	_ timeline.PlantChecker    = pgPlants{}
	_ timeline.EventRepository = pgEvents{}
	_ timeline.PhotoRepository = pgPhotos{}
)
