// Package persistence provides SQLite-based world state storage and
// compressed snapshot export.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/engine"
	"github.com/emberline/civitas/internal/telemetry"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		status INTEGER NOT NULL,
		wallet INTEGER NOT NULL,
		location_id INTEGER,
		residence_id INTEGER,
		next_shift_phase INTEGER NOT NULL,
		shift_worked INTEGER NOT NULL,
		starving_since INTEGER,
		born_phase INTEGER NOT NULL,
		needs_json TEXT NOT NULL,
		employment_json TEXT NOT NULL,
		travel_json TEXT,
		task_json TEXT NOT NULL,
		inventory_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orgs (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		leader_id INTEGER NOT NULL,
		wallet INTEGER NOT NULL,
		dissolved INTEGER NOT NULL,
		weekly_phase_offset INTEGER NOT NULL,
		week_revenue INTEGER NOT NULL,
		week_costs INTEGER NOT NULL,
		founded_phase INTEGER NOT NULL,
		tags_json TEXT NOT NULL,
		locations_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		template TEXT NOT NULL,
		owner_id INTEGER,
		for_sale INTEGER NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		pos_floor INTEGER NOT NULL,
		employee_slots INTEGER NOT NULL,
		salary_tier TEXT NOT NULL,
		resident_slots INTEGER NOT NULL,
		rent INTEGER NOT NULL,
		operating_cost INTEGER NOT NULL,
		tags_json TEXT NOT NULL,
		inventory_json TEXT NOT NULL,
		employees_json TEXT NOT NULL,
		residents_json TEXT NOT NULL,
		production_json TEXT,
		stocks_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vehicles (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id INTEGER,
		operator_id INTEGER,
		location_id INTEGER,
		cargo_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goods_orders (
		id INTEGER PRIMARY KEY,
		buyer_id INTEGER NOT NULL,
		seller_id INTEGER NOT NULL,
		good TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		total INTEGER NOT NULL,
		status INTEGER NOT NULL,
		deliver_to_id INTEGER NOT NULL,
		pickup_id INTEGER,
		child_id INTEGER,
		created_phase INTEGER NOT NULL,
		updated_phase INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS logistics_orders (
		id INTEGER PRIMARY KEY,
		parent_id INTEGER,
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		payment INTEGER NOT NULL,
		urgent INTEGER NOT NULL,
		status INTEGER NOT NULL,
		driver_id INTEGER,
		vehicle_id INTEGER,
		created_phase INTEGER NOT NULL,
		updated_phase INTEGER NOT NULL,
		cargo_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phase INTEGER NOT NULL,
		category TEXT NOT NULL,
		message TEXT NOT NULL,
		actor_id INTEGER NOT NULL,
		actor TEXT NOT NULL,
		severity INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_phase ON events(phase);
	CREATE INDEX IF NOT EXISTS idx_goods_status ON goods_orders(status);
	CREATE INDEX IF NOT EXISTS idx_logistics_status ON logistics_orders(status);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveAgents writes all agents to the database (full replace).
func (db *DB) SaveAgents(agentList []*agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, name, status, wallet, location_id, residence_id,
		 next_shift_phase, shift_worked, starving_since, born_phase,
		 needs_json, employment_json, travel_json, task_json, inventory_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		needsJSON, _ := json.Marshal(a.Needs)
		empJSON, _ := json.Marshal(a.Employment)
		taskJSON, _ := json.Marshal(a.Task)
		invJSON, _ := json.Marshal(a.Inventory)

		var travelJSON *string
		if a.Travel != nil {
			raw, _ := json.Marshal(a.Travel)
			s := string(raw)
			travelJSON = &s
		}

		_, err := stmt.Exec(
			a.ID, a.Name, a.Status, a.Wallet, a.LocationID, a.ResidenceID,
			a.NextShiftPhase, a.ShiftWorked, a.StarvingSince, a.BornPhase,
			string(needsJSON), string(empJSON), travelJSON, string(taskJSON), string(invJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// SaveOrgs writes all orgs to the database (full replace).
func (db *DB) SaveOrgs(orgs []*city.Org) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM orgs"); err != nil {
		return err
	}

	for _, o := range orgs {
		tagsJSON, _ := json.Marshal(o.Tags)
		locsJSON, _ := json.Marshal(o.Locations)

		_, err := tx.Exec(`INSERT INTO orgs
			(id, name, leader_id, wallet, dissolved, weekly_phase_offset,
			 week_revenue, week_costs, founded_phase, tags_json, locations_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.Name, o.LeaderID, o.Wallet, o.Dissolved, o.WeeklyPhaseOffset,
			o.WeekRevenue, o.WeekCosts, o.FoundedPhase, string(tagsJSON), string(locsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert org %d: %w", o.ID, err)
		}
	}

	return tx.Commit()
}

// SaveLocations writes all locations to the database (full replace).
func (db *DB) SaveLocations(locs []*city.Location) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM locations"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO locations
		(id, name, template, owner_id, for_sale, pos_x, pos_y, pos_floor,
		 employee_slots, salary_tier, resident_slots, rent, operating_cost,
		 tags_json, inventory_json, employees_json, residents_json,
		 production_json, stocks_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range locs {
		tagsJSON, _ := json.Marshal(l.Tags)
		invJSON, _ := json.Marshal(l.Inventory)
		empJSON, _ := json.Marshal(l.Employees)
		resJSON, _ := json.Marshal(l.Residents)
		stocksJSON, _ := json.Marshal(l.Stocks)

		var prodJSON *string
		if l.Production != nil {
			raw, _ := json.Marshal(l.Production)
			s := string(raw)
			prodJSON = &s
		}

		_, err := stmt.Exec(
			l.ID, l.Name, l.Template, l.OwnerID, l.ForSale,
			l.Pos.X, l.Pos.Y, l.Pos.Floor,
			l.EmployeeSlots, l.SalaryTier, l.ResidentSlots, l.Rent, l.OperatingCost,
			string(tagsJSON), string(invJSON), string(empJSON), string(resJSON),
			prodJSON, string(stocksJSON),
		)
		if err != nil {
			return fmt.Errorf("insert location %d: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// SaveVehicles writes all vehicles to the database (full replace).
func (db *DB) SaveVehicles(vehicles []*city.Vehicle) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM vehicles"); err != nil {
		return err
	}

	for _, v := range vehicles {
		cargoJSON, _ := json.Marshal(v.Cargo)
		_, err := tx.Exec(`INSERT INTO vehicles
			(id, name, owner_id, operator_id, location_id, cargo_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			v.ID, v.Name, v.OwnerID, v.OperatorID, v.LocationID, string(cargoJSON),
		)
		if err != nil {
			return fmt.Errorf("insert vehicle %d: %w", v.ID, err)
		}
	}

	return tx.Commit()
}

// SaveOrders writes both order books to the database (full replace).
func (db *DB) SaveOrders(goods []*city.GoodsOrder, logistics []*city.LogisticsOrder) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM goods_orders"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM logistics_orders"); err != nil {
		return err
	}

	for _, o := range goods {
		_, err := tx.Exec(`INSERT INTO goods_orders
			(id, buyer_id, seller_id, good, quantity, total, status,
			 deliver_to_id, pickup_id, child_id, created_phase, updated_phase)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.BuyerID, o.SellerID, o.Good, o.Quantity, o.Total, o.Status,
			o.DeliverToID, o.PickupID, o.ChildID, o.CreatedPhase, o.UpdatedPhase,
		)
		if err != nil {
			return fmt.Errorf("insert goods order %d: %w", o.ID, err)
		}
	}

	for _, o := range logistics {
		cargoJSON, _ := json.Marshal(o.Cargo)
		_, err := tx.Exec(`INSERT INTO logistics_orders
			(id, parent_id, from_id, to_id, payment, urgent, status,
			 driver_id, vehicle_id, created_phase, updated_phase, cargo_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.ParentID, o.FromID, o.ToID, o.Payment, o.Urgent, o.Status,
			o.DriverID, o.VehicleID, o.CreatedPhase, o.UpdatedPhase, string(cargoJSON),
		)
		if err != nil {
			return fmt.Errorf("insert logistics order %d: %w", o.ID, err)
		}
	}

	return tx.Commit()
}

// SaveEvents appends activity log events to the database.
func (db *DB) SaveEvents(events []telemetry.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (phase, category, message, actor_id, actor, severity) VALUES (?, ?, ?, ?, ?, ?)",
			e.Phase, e.Category, e.Message, e.ActorID, e.Actor, e.Severity,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// EnsureRunID returns the stored run identifier, minting one on first save.
func (db *DB) EnsureRunID() (string, error) {
	id, err := db.GetMeta("run_id")
	if err == nil && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := db.SaveMeta("run_id", id); err != nil {
		return "", err
	}
	return id, nil
}

// SaveWorldState performs a full save of all world state.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	slog.Info("saving world state",
		"phase", sim.Phase, "agents", len(sim.Agents), "orgs", len(sim.Orgs))

	if err := db.SaveAgents(sim.Agents); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := db.SaveOrgs(sim.Orgs); err != nil {
		return fmt.Errorf("save orgs: %w", err)
	}
	if err := db.SaveLocations(sim.Locations); err != nil {
		return fmt.Errorf("save locations: %w", err)
	}
	if err := db.SaveVehicles(sim.Vehicles); err != nil {
		return fmt.Errorf("save vehicles: %w", err)
	}
	if err := db.SaveOrders(sim.GoodsOrders, sim.Logistics); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	if err := db.SaveEvents(sim.Log.Drain()); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_phase", fmt.Sprintf("%d", sim.Phase)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("next_id", fmt.Sprintf("%d", sim.Rand.PeekNextID())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved")
	return nil
}

// RecentEvents returns the most recent N activity log events.
func (db *DB) RecentEvents(limit int) ([]telemetry.Event, error) {
	rows, err := db.conn.Queryx(
		"SELECT phase, category, message, actor_id, actor, severity FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []telemetry.Event
	for rows.Next() {
		var e telemetry.Event
		if err := rows.Scan(&e.Phase, &e.Category, &e.Message, &e.ActorID, &e.Actor, &e.Severity); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
