package carla

import (
	"fmt"
	"math/rand"
)

// Scenario fixes the start/end waypoints, the traffic density and the
// step budget of one episode.
type Scenario struct {
	Name           string `json:"name"`
	StartPosID     string `json:"start_pos_id"`
	EndPosID       string `json:"end_pos_id"`
	NumVehicles    int    `json:"num_vehicles"`
	NumPedestrians int    `json:"num_pedestrians"`
	MaxSteps       int    `json:"max_steps"`
}

// scenarioTables maps a scenario set name to its candidate scenarios.
// A hard reset draws one candidate uniformly.
var scenarioTables = map[string][]Scenario{
	"DEFAULT_SCENARIO_TOWN1": {
		{Name: "DEFAULT_SCENARIO_TOWN1", StartPosID: "36", EndPosID: "40",
			NumVehicles: 20, NumPedestrians: 40, MaxSteps: 200},
	},
	"DEFAULT_SCENARIO_TOWN1_2": {
		{Name: "DEFAULT_SCENARIO_TOWN1_2", StartPosID: "36", EndPosID: "40",
			NumVehicles: 2, NumPedestrians: 2, MaxSteps: 500},
	},
	"DEFAULT_SCENARIO_TOWN2": {
		{Name: "DEFAULT_SCENARIO_TOWN2", StartPosID: "37", EndPosID: "42",
			NumVehicles: 20, NumPedestrians: 40, MaxSteps: 200},
	},
	"TOWN1_STRAIGHT": {
		{Name: "TOWN1_STRAIGHT_0", StartPosID: "36", EndPosID: "40",
			NumVehicles: 0, NumPedestrians: 0, MaxSteps: 300},
		{Name: "TOWN1_STRAIGHT_1", StartPosID: "39", EndPosID: "35",
			NumVehicles: 0, NumPedestrians: 0, MaxSteps: 300},
		{Name: "TOWN1_STRAIGHT_2", StartPosID: "110", EndPosID: "114",
			NumVehicles: 0, NumPedestrians: 0, MaxSteps: 300},
		{Name: "TOWN1_STRAIGHT_3", StartPosID: "7", EndPosID: "3",
			NumVehicles: 0, NumPedestrians: 0, MaxSteps: 300},
	},
	"CURVE_TOWN1": {
		{Name: "CURVE_TOWN1_0", StartPosID: "0", EndPosID: "3",
			NumVehicles: 0, NumPedestrians: 0, MaxSteps: 400},
		{Name: "CURVE_TOWN1_1", StartPosID: "7", EndPosID: "36",
			NumVehicles: 0, NumPedestrians: 0, MaxSteps: 400},
	},
	"CURVE_TOWN2": {
		{Name: "CURVE_TOWN2_0", StartPosID: "37", EndPosID: "45",
			NumVehicles: 0, NumPedestrians: 0, MaxSteps: 400},
	},
}

func scenariosByName(name string) ([]Scenario, error) {
	table, ok := scenarioTables[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scenario set %q", ErrConfig, name)
	}
	return table, nil
}

// pickScenario draws one scenario from the named set, uniformly when
// the set holds more than one candidate.
func pickScenario(rng *rand.Rand, name string) (Scenario, error) {
	table, err := scenariosByName(name)
	if err != nil {
		return Scenario{}, err
	}
	if len(table) == 1 {
		return table[0], nil
	}
	return table[rng.Intn(len(table))], nil
}

// Waypoint coordinate maps, keyed by position id per town. Values are
// [x, y, z] in the world frame.
var town01NodeCoords = map[string][3]float64{
	"0":   {-12.0, 332.2, 39},
	"3":   {88.6, 330.5, 39},
	"7":   {119.5, 330.5, 39},
	"35":  {105.3, 199.1, 39},
	"36":  {107.5, 133.2, 39},
	"39":  {105.0, 57.3, 39},
	"40":  {107.7, 326.9, 39},
	"110": {338.9, 199.5, 39},
	"114": {338.6, 2.0, 39},
	"128": {392.5, 199.1, 39},
	"133": {392.5, 308.4, 39},
}

var town02NodeCoords = map[string][3]float64{
	"37": {-3.7, 236.5, 39},
	"42": {133.6, 236.5, 39},
	"45": {193.8, 179.4, 39},
	"47": {191.7, 121.4, 39},
	"58": {43.4, 187.3, 39},
	"64": {84.4, 227.6, 39},
}

func nodeCoords(town string) (map[string][3]float64, error) {
	switch town {
	case "Town01":
		return town01NodeCoords, nil
	case "Town02":
		return town02NodeCoords, nil
	default:
		return nil, fmt.Errorf("%w: no waypoint map for town %q", ErrConfig, town)
	}
}

// resolvePositions looks up the scenario's start and end waypoints in
// the town's coordinate map.
func resolvePositions(town string, s Scenario) (start, end [3]float64, err error) {
	coords, err := nodeCoords(town)
	if err != nil {
		return start, end, err
	}
	start, ok := coords[s.StartPosID]
	if !ok {
		return start, end, fmt.Errorf("%w: unknown start position %q in %s", ErrConfig, s.StartPosID, town)
	}
	end, ok = coords[s.EndPosID]
	if !ok {
		return start, end, fmt.Errorf("%w: unknown end position %q in %s", ErrConfig, s.EndPosID, town)
	}
	return start, end, nil
}
