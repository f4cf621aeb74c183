package persistence

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/emberline/civitas/internal/agents"
	"github.com/emberline/civitas/internal/city"
	"github.com/emberline/civitas/internal/econ"
)

// World is the complete saved state a run resumes from.
type World struct {
	Agents    []*agents.Agent
	Orgs      []*city.Org
	Locations []*city.Location
	Vehicles  []*city.Vehicle
	Goods     []*city.GoodsOrder
	Logistics []*city.LogisticsOrder

	Phase  uint64
	NextID uint64
}

// LoadWorld reads the full saved world. Returns an error when the database
// holds no save.
func (db *DB) LoadWorld() (*World, error) {
	phaseStr, err := db.GetMeta("last_phase")
	if err != nil {
		return nil, fmt.Errorf("no saved world: %w", err)
	}
	phase, err := strconv.ParseUint(phaseStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt last_phase %q: %w", phaseStr, err)
	}

	w := &World{Phase: phase}

	if nextStr, err := db.GetMeta("next_id"); err == nil {
		w.NextID, _ = strconv.ParseUint(nextStr, 10, 64)
	}

	if w.Agents, err = db.loadAgents(); err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	if w.Orgs, err = db.loadOrgs(); err != nil {
		return nil, fmt.Errorf("load orgs: %w", err)
	}
	if w.Locations, err = db.loadLocations(); err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	if w.Vehicles, err = db.loadVehicles(); err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	if w.Goods, w.Logistics, err = db.loadOrders(); err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	return w, nil
}

func (db *DB) loadAgents() ([]*agents.Agent, error) {
	rows, err := db.conn.Queryx(`SELECT id, name, status, wallet, location_id,
		residence_id, next_shift_phase, shift_worked, starving_since, born_phase,
		needs_json, employment_json, travel_json, task_json, inventory_json
		FROM agents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*agents.Agent
	for rows.Next() {
		a := &agents.Agent{}
		var needsJSON, empJSON, taskJSON, invJSON string
		var travelJSON *string
		err := rows.Scan(&a.ID, &a.Name, &a.Status, &a.Wallet, &a.LocationID,
			&a.ResidenceID, &a.NextShiftPhase, &a.ShiftWorked, &a.StarvingSince,
			&a.BornPhase, &needsJSON, &empJSON, &travelJSON, &taskJSON, &invJSON)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(needsJSON), &a.Needs); err != nil {
			return nil, fmt.Errorf("agent %d needs: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(empJSON), &a.Employment); err != nil {
			return nil, fmt.Errorf("agent %d employment: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(taskJSON), &a.Task); err != nil {
			return nil, fmt.Errorf("agent %d task: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(invJSON), &a.Inventory); err != nil {
			return nil, fmt.Errorf("agent %d inventory: %w", a.ID, err)
		}
		if travelJSON != nil {
			t := &agents.TravelState{}
			if err := json.Unmarshal([]byte(*travelJSON), t); err != nil {
				return nil, fmt.Errorf("agent %d travel: %w", a.ID, err)
			}
			a.Travel = t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (db *DB) loadOrgs() ([]*city.Org, error) {
	rows, err := db.conn.Queryx(`SELECT id, name, leader_id, wallet, dissolved,
		weekly_phase_offset, week_revenue, week_costs, founded_phase,
		tags_json, locations_json FROM orgs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*city.Org
	for rows.Next() {
		o := &city.Org{}
		var tagsJSON, locsJSON string
		err := rows.Scan(&o.ID, &o.Name, &o.LeaderID, &o.Wallet, &o.Dissolved,
			&o.WeeklyPhaseOffset, &o.WeekRevenue, &o.WeekCosts, &o.FoundedPhase,
			&tagsJSON, &locsJSON)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &o.Tags); err != nil {
			return nil, fmt.Errorf("org %d tags: %w", o.ID, err)
		}
		if err := json.Unmarshal([]byte(locsJSON), &o.Locations); err != nil {
			return nil, fmt.Errorf("org %d locations: %w", o.ID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (db *DB) loadLocations() ([]*city.Location, error) {
	rows, err := db.conn.Queryx(`SELECT id, name, template, owner_id, for_sale,
		pos_x, pos_y, pos_floor, employee_slots, salary_tier, resident_slots,
		rent, operating_cost, tags_json, inventory_json, employees_json,
		residents_json, production_json, stocks_json FROM locations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*city.Location
	for rows.Next() {
		l := &city.Location{}
		var tagsJSON, invJSON, empJSON, resJSON, stocksJSON string
		var prodJSON *string
		err := rows.Scan(&l.ID, &l.Name, &l.Template, &l.OwnerID, &l.ForSale,
			&l.Pos.X, &l.Pos.Y, &l.Pos.Floor, &l.EmployeeSlots, &l.SalaryTier,
			&l.ResidentSlots, &l.Rent, &l.OperatingCost, &tagsJSON, &invJSON,
			&empJSON, &resJSON, &prodJSON, &stocksJSON)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &l.Tags); err != nil {
			return nil, fmt.Errorf("location %d tags: %w", l.ID, err)
		}
		if err := json.Unmarshal([]byte(invJSON), &l.Inventory); err != nil {
			return nil, fmt.Errorf("location %d inventory: %w", l.ID, err)
		}
		if err := json.Unmarshal([]byte(empJSON), &l.Employees); err != nil {
			return nil, fmt.Errorf("location %d employees: %w", l.ID, err)
		}
		if err := json.Unmarshal([]byte(resJSON), &l.Residents); err != nil {
			return nil, fmt.Errorf("location %d residents: %w", l.ID, err)
		}
		if err := json.Unmarshal([]byte(stocksJSON), &l.Stocks); err != nil {
			return nil, fmt.Errorf("location %d stocks: %w", l.ID, err)
		}
		if prodJSON != nil {
			p := &city.Production{}
			if err := json.Unmarshal([]byte(*prodJSON), p); err != nil {
				return nil, fmt.Errorf("location %d production: %w", l.ID, err)
			}
			l.Production = p
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (db *DB) loadVehicles() ([]*city.Vehicle, error) {
	rows, err := db.conn.Queryx(`SELECT id, name, owner_id, operator_id,
		location_id, cargo_json FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*city.Vehicle
	for rows.Next() {
		v := &city.Vehicle{}
		var cargoJSON string
		err := rows.Scan(&v.ID, &v.Name, &v.OwnerID, &v.OperatorID, &v.LocationID, &cargoJSON)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cargoJSON), &v.Cargo); err != nil {
			return nil, fmt.Errorf("vehicle %d cargo: %w", v.ID, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (db *DB) loadOrders() ([]*city.GoodsOrder, []*city.LogisticsOrder, error) {
	gRows, err := db.conn.Queryx(`SELECT id, buyer_id, seller_id, good, quantity,
		total, status, deliver_to_id, pickup_id, child_id, created_phase,
		updated_phase FROM goods_orders ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer gRows.Close()

	var goods []*city.GoodsOrder
	for gRows.Next() {
		o := &city.GoodsOrder{}
		err := gRows.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.Good, &o.Quantity,
			&o.Total, &o.Status, &o.DeliverToID, &o.PickupID, &o.ChildID,
			&o.CreatedPhase, &o.UpdatedPhase)
		if err != nil {
			return nil, nil, err
		}
		goods = append(goods, o)
	}
	if err := gRows.Err(); err != nil {
		return nil, nil, err
	}

	lRows, err := db.conn.Queryx(`SELECT id, parent_id, from_id, to_id, payment,
		urgent, status, driver_id, vehicle_id, created_phase, updated_phase,
		cargo_json FROM logistics_orders ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer lRows.Close()

	var logistics []*city.LogisticsOrder
	for lRows.Next() {
		o := &city.LogisticsOrder{}
		var cargoJSON string
		err := lRows.Scan(&o.ID, &o.ParentID, &o.FromID, &o.ToID, &o.Payment,
			&o.Urgent, &o.Status, &o.DriverID, &o.VehicleID, &o.CreatedPhase,
			&o.UpdatedPhase, &cargoJSON)
		if err != nil {
			return nil, nil, err
		}
		o.Cargo = make(map[econ.GoodID]int)
		if err := json.Unmarshal([]byte(cargoJSON), &o.Cargo); err != nil {
			return nil, nil, fmt.Errorf("logistics order %d cargo: %w", o.ID, err)
		}
		logistics = append(logistics, o)
	}
	return goods, logistics, lRows.Err()
}
