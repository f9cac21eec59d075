package workload

import (
	"fmt"
	"sort"
)

// Built-in scenario presets. Each returns a valid ScenarioSpec ready for Build.

// ScenarioCoffeeShop models six single-slot baristas serving 1000 orders that
// all arrive when the shop opens.
func ScenarioCoffeeShop(seed int64) *ScenarioSpec {
	return &ScenarioSpec{
		Name: "coffee-shop", NumEntities: 1000, Horizon: 5000, RandomSeed: seed,
		ResourceCapacities: map[string]int{
			"Barista A": 1, "Barista B": 1, "Barista C": 1,
			"Barista D": 1, "Barista E": 1, "Barista F": 1,
		},
		ActivityDurations: []DurationSpec{
			{Name: "Seated", Min: 1, Max: 3},
			{Name: "Order Taken", Min: 2, Max: 5},
			{Name: "Drink Prepared", Min: 3, Max: 7},
			{Name: "Drink Served", Min: 1, Max: 3},
			{Name: "Snack Prepared", Min: 2, Max: 5},
			{Name: "Snack Served", Min: 1, Max: 3},
			{Name: "Bill Delivered", Min: 1, Max: 2},
			{Name: "Bill Paid", Min: 1, Max: 3},
		},
		PRushed: 0.5, MeanServiceTime: 2,
		Arrivals: ArrivalSpec{Process: ProcessAllAtOnce},
	}
}

// ScenarioRestaurant models one waiter serving ten tables.
func ScenarioRestaurant(seed int64) *ScenarioSpec {
	return &ScenarioSpec{
		Name: "restaurant", NumEntities: 10, Horizon: 100, RandomSeed: seed,
		ResourceCapacities: map[string]int{"Waitstaff A": 1},
		ActivityDurations: []DurationSpec{
			{Name: "Seated", Min: 1, Max: 3},
			{Name: "Visit Table", Min: 2, Max: 5},
			{Name: "Order Posted", Min: 1, Max: 3},
			{Name: "Order Delivered", Min: 5, Max: 10},
			{Name: "Bill Delivered", Min: 1, Max: 2},
			{Name: "Bill Paid", Min: 1, Max: 3},
		},
		PRushed: 0.5, MeanServiceTime: 2,
		Arrivals: ArrivalSpec{Process: ProcessAllAtOnce},
	}
}

// ScenarioImpatientRush is the coffee shop with a Poisson stream of customers
// who balk and renege.
func ScenarioImpatientRush(seed int64) *ScenarioSpec {
	spec := ScenarioCoffeeShop(seed)
	spec.Name = "impatient-rush"
	spec.NumEntities = 500
	spec.Horizon = 1000
	spec.Patience = true
	spec.Arrivals = ArrivalSpec{Process: ProcessPoisson, MeanInterarrival: 1.5}
	return spec
}

var presets = map[string]func(seed int64) *ScenarioSpec{
	"coffee-shop":    ScenarioCoffeeShop,
	"restaurant":     ScenarioRestaurant,
	"impatient-rush": ScenarioImpatientRush,
}

// PresetNames returns the names accepted by Preset, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns the named built-in scenario.
func Preset(name string, seed int64) (*ScenarioSpec, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q; valid: %v", name, PresetNames())
	}
	return build(seed), nil
}
