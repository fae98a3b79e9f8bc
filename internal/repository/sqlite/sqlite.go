package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"clusterforge/internal/repository"

	_ "modernc.org/sqlite"
)

// Store implements repository.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

// New opens (and migrates) a SQLite-backed topology store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clusters (
		name TEXT PRIMARY KEY,
		blueprint TEXT NOT NULL,
		data JSON NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS host_assignments (
		cluster TEXT NOT NULL,
		host TEXT NOT NULL,
		host_group TEXT NOT NULL,
		rack TEXT,
		PRIMARY KEY (cluster, host),
		FOREIGN KEY (cluster) REFERENCES clusters(name) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_host_assignments_group ON host_assignments(cluster, host_group);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveTopology creates or replaces a cluster's snapshot in one transaction.
func (s *Store) SaveTopology(ctx context.Context, snapshot *repository.TopologySnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO clusters (name, blueprint, data)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			blueprint = excluded.blueprint,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, snapshot.ClusterName, snapshot.BlueprintName, data)
	if err != nil {
		return fmt.Errorf("failed to upsert cluster: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM host_assignments WHERE cluster = ?`, snapshot.ClusterName); err != nil {
		return fmt.Errorf("failed to clear host assignments: %w", err)
	}
	for _, group := range snapshot.HostGroups {
		for _, host := range group.Hosts {
			rack := group.Racks[host]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO host_assignments (cluster, host, host_group, rack)
				VALUES (?, ?, ?, ?)
			`, snapshot.ClusterName, host, group.Name, rack)
			if err != nil {
				return fmt.Errorf("failed to insert host assignment: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetTopology loads a cluster's snapshot, or nil if the cluster is unknown.
func (s *Store) GetTopology(ctx context.Context, clusterName string) (*repository.TopologySnapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM clusters WHERE name = ?`, clusterName).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster: %w", err)
	}

	var snapshot repository.TopologySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	// Host assignments are the indexed source of truth; the JSON column is
	// the convenience copy.
	rows, err := s.db.QueryContext(ctx, `
		SELECT host, host_group, rack FROM host_assignments WHERE cluster = ?
	`, clusterName)
	if err != nil {
		return nil, fmt.Errorf("failed to query host assignments: %w", err)
	}
	defer rows.Close()

	hostsByGroup := make(map[string][]string)
	racksByGroup := make(map[string]map[string]string)
	for rows.Next() {
		var host, groupName string
		var rack sql.NullString
		if err := rows.Scan(&host, &groupName, &rack); err != nil {
			return nil, fmt.Errorf("failed to scan host assignment: %w", err)
		}
		hostsByGroup[groupName] = append(hostsByGroup[groupName], host)
		if rack.Valid && rack.String != "" {
			racks, ok := racksByGroup[groupName]
			if !ok {
				racks = make(map[string]string)
				racksByGroup[groupName] = racks
			}
			racks[host] = rack.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read host assignments: %w", err)
	}

	for i := range snapshot.HostGroups {
		group := &snapshot.HostGroups[i]
		hosts := hostsByGroup[group.Name]
		sort.Strings(hosts)
		group.Hosts = hosts
		group.Racks = racksByGroup[group.Name]
		delete(hostsByGroup, group.Name)
	}
	for groupName, hosts := range hostsByGroup {
		sort.Strings(hosts)
		snapshot.HostGroups = append(snapshot.HostGroups, repository.HostGroupSnapshot{
			Name:  groupName,
			Hosts: hosts,
			Racks: racksByGroup[groupName],
		})
	}
	sort.Slice(snapshot.HostGroups, func(i, j int) bool {
		return snapshot.HostGroups[i].Name < snapshot.HostGroups[j].Name
	})
	return &snapshot, nil
}

// ListClusters returns all persisted cluster names, sorted.
func (s *Store) ListClusters(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM clusters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clusters: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan cluster name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteTopology removes a cluster and its host assignments.
func (s *Store) DeleteTopology(ctx context.Context, clusterName string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM clusters WHERE name = ?`, clusterName); err != nil {
		return fmt.Errorf("failed to delete cluster: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
