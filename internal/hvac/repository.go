package hvac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EmitterConfig describes one configured output channel: its position
// in the emitter table and the GPIO it drives.
type EmitterConfig struct {
	Index int    `json:"index"`
	GPIO  int    `json:"gpio"`
	Name  string `json:"name"`
}

// Repository defines the interface for device and emitter persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its identifier.
	// Returns ErrUnknownID if the device does not exist.
	GetByID(ctx context.Context, id string) (*DeviceConfig, error)

	// List retrieves all devices, oldest registration first. This order
	// is the registry order used for connect-time snapshot pushes.
	List(ctx context.Context) ([]DeviceConfig, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same id already exists.
	Create(ctx context.Context, device *DeviceConfig) error

	// Update modifies an existing device.
	// Returns ErrUnknownID if the device does not exist.
	Update(ctx context.Context, device *DeviceConfig) error

	// Delete removes a device by id, cascading its temp-code table.
	// Returns ErrUnknownID if the device does not exist.
	Delete(ctx context.Context, id string) error

	// ListEmitters retrieves the emitter table in index order.
	ListEmitters(ctx context.Context) ([]EmitterConfig, error)

	// SaveEmitters replaces the emitter table wholesale.
	SaveEmitters(ctx context.Context, emitters []EmitterConfig) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a device by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*DeviceConfig, error) {
	query := `
		SELECT id, name, protocol, emitter, model, encoding, off_code,
			created_at, updated_at
		FROM devices
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownID
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}

	if err := r.loadTempCodes(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// List retrieves all devices, oldest registration first.
func (r *SQLiteRepository) List(ctx context.Context) ([]DeviceConfig, error) {
	query := `
		SELECT id, name, protocol, emitter, model, encoding, off_code,
			created_at, updated_at
		FROM devices
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceConfig
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	for i := range devices {
		if err := r.loadTempCodes(ctx, &devices[i]); err != nil {
			return nil, err
		}
	}
	return devices, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, device *DeviceConfig) error {
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	encoding, offCode := customColumns(device)

	query := `
		INSERT INTO devices (
			id, name, protocol, emitter, model, encoding, off_code,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		device.ID,
		device.Name,
		device.Protocol,
		device.Emitter,
		device.Model,
		encoding,
		offCode,
		device.CreatedAt.Format(time.RFC3339),
		device.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}

	return r.saveTempCodes(ctx, device)
}

// Update modifies an existing device and replaces its temp-code table.
func (r *SQLiteRepository) Update(ctx context.Context, device *DeviceConfig) error {
	device.UpdatedAt = time.Now().UTC()
	encoding, offCode := customColumns(device)

	query := `
		UPDATE devices SET
			name = ?, protocol = ?, emitter = ?, model = ?,
			encoding = ?, off_code = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		device.Name,
		device.Protocol,
		device.Emitter,
		device.Model,
		encoding,
		offCode,
		device.UpdatedAt.Format(time.RFC3339),
		device.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUnknownID
	}

	return r.saveTempCodes(ctx, device)
}

// Delete removes a device by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	// Temp codes first: SQLite only cascades when foreign keys are
	// enabled on the connection, so do not rely on it.
	if _, err := r.db.ExecContext(ctx, "DELETE FROM device_temp_codes WHERE device_id = ?", id); err != nil {
		return fmt.Errorf("deleting device temp codes: %w", err)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUnknownID
	}
	return nil
}

// ListEmitters retrieves the emitter table in index order.
func (r *SQLiteRepository) ListEmitters(ctx context.Context) ([]EmitterConfig, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT idx, gpio, name FROM emitters ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("querying emitters: %w", err)
	}
	defer rows.Close()

	var emitters []EmitterConfig
	for rows.Next() {
		var e EmitterConfig
		if err := rows.Scan(&e.Index, &e.GPIO, &e.Name); err != nil {
			return nil, fmt.Errorf("scanning emitter: %w", err)
		}
		emitters = append(emitters, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating emitters: %w", err)
	}
	return emitters, nil
}

// SaveEmitters replaces the emitter table wholesale, matching the
// runtime channel table's rebuild-everything lifecycle.
func (r *SQLiteRepository) SaveEmitters(ctx context.Context, emitters []EmitterConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning emitter save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM emitters"); err != nil {
		return fmt.Errorf("clearing emitters: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range emitters {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO emitters (idx, gpio, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			e.Index, e.GPIO, e.Name, now, now,
		)
		if err != nil {
			return fmt.Errorf("inserting emitter %d: %w", e.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing emitter save: %w", err)
	}
	return nil
}

// loadTempCodes populates a custom device's temp-code table.
func (r *SQLiteRepository) loadTempCodes(ctx context.Context, device *DeviceConfig) error {
	if device.Custom == nil {
		return nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT temp, code FROM device_temp_codes WHERE device_id = ? ORDER BY temp", device.ID)
	if err != nil {
		return fmt.Errorf("querying temp codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[int]string)
	for rows.Next() {
		var temp int
		var code string
		if err := rows.Scan(&temp, &code); err != nil {
			return fmt.Errorf("scanning temp code: %w", err)
		}
		codes[temp] = code
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating temp codes: %w", err)
	}

	device.Custom.Temps = codes
	return nil
}

// saveTempCodes replaces a device's temp-code rows with its in-memory table.
func (r *SQLiteRepository) saveTempCodes(ctx context.Context, device *DeviceConfig) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM device_temp_codes WHERE device_id = ?", device.ID); err != nil {
		return fmt.Errorf("clearing temp codes: %w", err)
	}
	if device.Custom == nil {
		return nil
	}

	for temp, code := range device.Custom.Temps {
		_, err := r.db.ExecContext(ctx,
			"INSERT INTO device_temp_codes (device_id, temp, code) VALUES (?, ?, ?)",
			device.ID, temp, code,
		)
		if err != nil {
			return fmt.Errorf("inserting temp code %d: %w", temp, err)
		}
	}
	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a row or rows result into a DeviceConfig.
func scanDevice(scanner rowScanner) (*DeviceConfig, error) {
	var d DeviceConfig
	var encoding, offCode string
	var createdAt, updatedAt string

	err := scanner.Scan(
		&d.ID,
		&d.Name,
		&d.Protocol,
		&d.Emitter,
		&d.Model,
		&encoding,
		&offCode,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if d.IsCustom() {
		d.Custom = &CustomCodes{Encoding: encoding, Off: offCode}
	}

	var parseErr error
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &d, nil
}

// customColumns flattens the optional custom block into its table columns.
func customColumns(device *DeviceConfig) (encoding, offCode string) {
	if device.Custom == nil {
		return "", ""
	}
	return device.Custom.Encoding, device.Custom.Off
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
