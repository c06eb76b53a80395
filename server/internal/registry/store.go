package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"converge.io/converge/models"
	"converge.io/converge/pkg/urlgen"
	"converge.io/converge/server/internal/metrics"
)

// moduleScope is the version_ordinal of module-level clusters.
const moduleScope = -1

const schema = `
CREATE TABLE IF NOT EXISTS modules (
    ordinal INTEGER NOT NULL,
    id TEXT PRIMARY KEY,
    path TEXT NOT NULL,
    quiet_path TEXT NOT NULL DEFAULT '',
    domain TEXT NOT NULL DEFAULT '',
    generator TEXT
);
CREATE TABLE IF NOT EXISTS versions (
    module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    ordinal INTEGER NOT NULL,
    id TEXT,
    link_target TEXT,
    is_default INTEGER NOT NULL DEFAULT 0,
    generator TEXT,
    PRIMARY KEY (module_id, ordinal),
    CHECK ((id IS NULL) != (link_target IS NULL))
);
CREATE TABLE IF NOT EXISTS clusters (
    module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
    version_ordinal INTEGER NOT NULL DEFAULT -1,
    ordinal INTEGER NOT NULL,
    id TEXT,
    link_target TEXT,
    is_default INTEGER NOT NULL DEFAULT 0,
    domain TEXT NOT NULL DEFAULT '',
    generator TEXT,
    PRIMARY KEY (module_id, version_ordinal, ordinal),
    CHECK ((id IS NULL) != (link_target IS NULL))
);
`

// Store persists the registry in SQLite, preserving entry order and links.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore creates a store over an open database.
// Call Migrate before first use.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Open opens (or creates) a SQLite registry database and migrates it.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewStore(db, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Registry database ready", zap.String("path", path))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the registry database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", models.ErrDatabaseError, err)
	}
	return nil
}

// Migrate creates the registry tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: migrate: %v", models.ErrDatabaseError, err)
	}
	return nil
}

// Import replaces the stored registry with modules in one transaction.
//
// Parameters:
//   - ctx: Context for the transaction
//   - modules: Ordered modules; every generator must be describable by a urlgen.Spec
//
// Returns:
//   - Error if a generator cannot be stored or the transaction fails
func (s *Store) Import(ctx context.Context, modules []*models.Module) (err error) {
	start := time.Now()
	defer func() {
		metrics.RegistryQueryDuration.WithLabelValues("import").Observe(time.Since(start).Seconds())
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"clusters", "versions", "modules"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("%w: clear %s: %v", models.ErrDatabaseError, table, err)
		}
	}

	for i, m := range modules {
		if err := insertModule(ctx, tx, i, m); err != nil {
			return fmt.Errorf("module %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Imported registry", zap.Int("modules", len(modules)))
	return nil
}

func insertModule(ctx context.Context, tx *sql.Tx, ordinal int, m *models.Module) error {
	gen, err := encodeGenerator(m.Generator)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO modules (ordinal, id, path, quiet_path, domain, generator)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ordinal, m.ID, m.Path, m.QuietPath, m.Domain.String(), gen)
	if err != nil {
		return fmt.Errorf("%w: insert module: %v", models.ErrDatabaseError, err)
	}

	for i, entry := range m.Versions {
		if err := insertVersion(ctx, tx, m.ID, i, entry); err != nil {
			return err
		}
	}
	return insertClusters(ctx, tx, m.ID, moduleScope, m.Clusters)
}

func insertVersion(ctx context.Context, tx *sql.Tx, moduleID string, ordinal int, entry models.VersionEntry) error {
	if entry.Link != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO versions (module_id, ordinal, link_target) VALUES (?, ?, ?)
		`, moduleID, ordinal, entry.Link.Target)
		if err != nil {
			return fmt.Errorf("%w: insert version link: %v", models.ErrDatabaseError, err)
		}
		return nil
	}

	v := entry.Version
	gen, err := encodeGenerator(v.Generator)
	if err != nil {
		return fmt.Errorf("version %s: %w", v.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO versions (module_id, ordinal, id, is_default, generator) VALUES (?, ?, ?, ?, ?)
	`, moduleID, ordinal, v.ID, v.Default, gen)
	if err != nil {
		return fmt.Errorf("%w: insert version %s: %v", models.ErrDatabaseError, v.ID, err)
	}
	return insertClusters(ctx, tx, moduleID, ordinal, v.Clusters)
}

func insertClusters(ctx context.Context, tx *sql.Tx, moduleID string, versionOrdinal int, entries []models.ClusterEntry) error {
	for i, entry := range entries {
		if entry.Link != nil {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO clusters (module_id, version_ordinal, ordinal, link_target) VALUES (?, ?, ?, ?)
			`, moduleID, versionOrdinal, i, entry.Link.Target)
			if err != nil {
				return fmt.Errorf("%w: insert cluster link: %v", models.ErrDatabaseError, err)
			}
			continue
		}

		c := entry.Cluster
		gen, err := encodeGenerator(c.Generator)
		if err != nil {
			return fmt.Errorf("cluster %s: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO clusters (module_id, version_ordinal, ordinal, id, is_default, domain, generator)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, moduleID, versionOrdinal, i, c.ID, c.Default, c.Domain.String(), gen)
		if err != nil {
			return fmt.Errorf("%w: insert cluster %s: %v", models.ErrDatabaseError, c.ID, err)
		}
	}
	return nil
}

// Modules loads the registry in stored order.
func (s *Store) Modules(ctx context.Context) (modules []*models.Module, err error) {
	start := time.Now()
	defer func() {
		metrics.RegistryQueryDuration.WithLabelValues("modules").Observe(time.Since(start).Seconds())
		metrics.RegistryLoads.WithLabelValues("sqlite", metrics.StatusLabel(err)).Inc()
		if err == nil {
			metrics.RegistryModules.Set(float64(len(modules)))
		}
	}()

	byID := make(map[string]*models.Module)
	modules, err = s.loadModules(ctx, byID)
	if err != nil {
		return nil, err
	}

	versions, err := s.loadVersions(ctx, byID)
	if err != nil {
		return nil, err
	}

	if err := s.loadClusters(ctx, byID, versions); err != nil {
		return nil, err
	}

	return modules, nil
}

func (s *Store) loadModules(ctx context.Context, byID map[string]*models.Module) ([]*models.Module, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, quiet_path, domain, generator FROM modules ORDER BY ordinal
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query modules: %v", models.ErrDatabaseError, err)
	}
	defer rows.Close()

	var modules []*models.Module
	for rows.Next() {
		var (
			m      models.Module
			domain string
			gen    sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Path, &m.QuietPath, &domain, &gen); err != nil {
			return nil, fmt.Errorf("%w: scan module: %v", models.ErrDatabaseError, err)
		}
		m.Domain = models.Domain(domain)
		if m.Generator, err = decodeGenerator(gen); err != nil {
			return nil, fmt.Errorf("module %s: %w", m.ID, err)
		}
		modules = append(modules, &m)
		byID[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate modules: %v", models.ErrDatabaseError, err)
	}
	return modules, nil
}

// versionKey addresses a version row for attaching its clusters.
type versionKey struct {
	moduleID string
	ordinal  int
}

func (s *Store) loadVersions(ctx context.Context, byID map[string]*models.Module) (map[versionKey]*models.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module_id, ordinal, id, link_target, is_default, generator
		FROM versions ORDER BY module_id, ordinal
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query versions: %v", models.ErrDatabaseError, err)
	}
	defer rows.Close()

	versions := make(map[versionKey]*models.Version)
	for rows.Next() {
		var (
			key       versionKey
			id, link  sql.NullString
			isDefault bool
			gen       sql.NullString
		)
		if err := rows.Scan(&key.moduleID, &key.ordinal, &id, &link, &isDefault, &gen); err != nil {
			return nil, fmt.Errorf("%w: scan version: %v", models.ErrDatabaseError, err)
		}
		m, ok := byID[key.moduleID]
		if !ok {
			continue
		}

		if link.Valid {
			m.Versions = append(m.Versions, models.VersionEntry{Link: &models.Link{Target: link.String}})
			continue
		}

		v := &models.Version{ID: id.String, Default: isDefault}
		if v.Generator, err = decodeGenerator(gen); err != nil {
			return nil, fmt.Errorf("version %s: %w", v.ID, err)
		}
		m.Versions = append(m.Versions, models.VersionEntry{Version: v})
		versions[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate versions: %v", models.ErrDatabaseError, err)
	}
	return versions, nil
}

func (s *Store) loadClusters(ctx context.Context, byID map[string]*models.Module, versions map[versionKey]*models.Version) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module_id, version_ordinal, id, link_target, is_default, domain, generator
		FROM clusters ORDER BY module_id, version_ordinal, ordinal
	`)
	if err != nil {
		return fmt.Errorf("%w: query clusters: %v", models.ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key       versionKey
			id, link  sql.NullString
			isDefault bool
			domain    string
			gen       sql.NullString
		)
		if err := rows.Scan(&key.moduleID, &key.ordinal, &id, &link, &isDefault, &domain, &gen); err != nil {
			return fmt.Errorf("%w: scan cluster: %v", models.ErrDatabaseError, err)
		}

		var entry models.ClusterEntry
		if link.Valid {
			entry.Link = &models.Link{Target: link.String}
		} else {
			c := &models.Cluster{ID: id.String, Default: isDefault, Domain: models.Domain(domain)}
			if c.Generator, err = decodeGenerator(gen); err != nil {
				return fmt.Errorf("cluster %s: %w", c.ID, err)
			}
			entry.Cluster = c
		}

		if key.ordinal == moduleScope {
			if m, ok := byID[key.moduleID]; ok {
				m.Clusters = append(m.Clusters, entry)
			}
			continue
		}
		if v, ok := versions[key]; ok {
			v.Clusters = append(v.Clusters, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate clusters: %v", models.ErrDatabaseError, err)
	}
	return nil
}

// encodeGenerator stores nil and Segments as NULL and any other describable
// generator as its JSON spec.
func encodeGenerator(g urlgen.Generator) (sql.NullString, error) {
	spec, ok := urlgen.SpecOf(g)
	if !ok {
		return sql.NullString{}, fmt.Errorf("%w: generator %T cannot be stored", models.ErrInvalidRegistry, g)
	}
	if spec.Kind == urlgen.KindSegments {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal generator: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeGenerator(column sql.NullString) (urlgen.Generator, error) {
	if !column.Valid || column.String == "" {
		return nil, nil
	}
	var spec urlgen.Spec
	if err := json.Unmarshal([]byte(column.String), &spec); err != nil {
		return nil, fmt.Errorf("%w: generator: %v", models.ErrInvalidRegistry, err)
	}
	return buildGenerator(&spec)
}
