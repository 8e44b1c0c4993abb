package config

import "github.com/drew/databoard/internal/model"

// MetricSpec describes how one parameter is loaded, projected and displayed
type MetricSpec struct {
	Parameter model.Parameter
	// Dataset is the catalog key of the backing file
	Dataset string
	// File is the CSV file name relative to the data directory
	File string
	// Coords adds the X, Y, Z columns to the projection
	Coords  bool
	Label   string
	AxisMin float64
	AxisMax float64
	// Scale multiplies every raw value
	Scale float64
	// Locations restricts rows to these labels; empty keeps all
	Locations []string
	// HasImage marks parameters with <parameter>-<height>.png reference images
	HasImage bool
	// Summary and Definition are markdown shown above the chart; inline
	// <sub> is allowed for formulas
	Summary    string
	Definition string
}

// Columns returns the projected column names in display order
func (m MetricSpec) Columns() []string {
	cols := []string{model.ColHeight, model.ColLocation, string(m.Parameter)}
	if m.Coords {
		cols = append(cols, model.ColX, model.ColY, model.ColZ)
	}
	return cols
}

// KeepsLocation reports whether rows at loc survive the location filter
func (m MetricSpec) KeepsLocation(loc string) bool {
	if len(m.Locations) == 0 {
		return true
	}
	for _, l := range m.Locations {
		if l == loc {
			return true
		}
	}
	return false
}

// BuiltInMetrics returns the fixed metric table
func BuiltInMetrics() map[model.Parameter]MetricSpec {
	return map[model.Parameter]MetricSpec{
		model.ParamVelocity: {
			Parameter: model.ParamVelocity,
			Dataset:   "sections",
			File:      "sections.csv",
			Coords:    true,
			Label:     "Velocity (m/s)",
			AxisMin:   -0.1,
			AxisMax:   0.6,
			Scale:     1,
			HasImage:  true,
			Summary: "An elevation in the placement height of the valve prosthesis leads to heightened " +
				"velocities within the ascending aorta region. Nevertheless, this velocity disparity " +
				"diminishes with increasing distance from the aortic valve.",
		},
		model.ParamShear: {
			Parameter: model.ParamShear,
			Dataset:   "walls",
			File:      "walls.csv",
			Label:     "Shear (Pa)",
			AxisMin:   -0.5,
			AxisMax:   2.5,
			Scale:     1,
			HasImage:  true,
			Summary: "The adjustment of valve prosthesis placement height leads to elevated shear stress " +
				"values in the ascending aorta. Conversely, this adjustment has no discernible impact on " +
				"the regions of the aortic arch and descending aorta, as expected.",
			Definition: "**Wall shear stress** expresses the retarding force (per unit area) from a wall in " +
				"the layers of a fluid flowing next to the wall.\n\n" +
				"τ<sub>w</sub> = μ ∂u/∂y\n\n" +
				"It is used, for example, in the description of arterial blood flow, in which case there " +
				"is evidence that it affects the **atherogenic** process.",
		},
		model.ParamFlow: {
			Parameter: model.ParamFlow,
			Dataset:   "boundaries",
			File:      "boundaries.csv",
			Coords:    true,
			Label:     "Mass Flow (mg/s)",
			AxisMin:   -25,
			AxisMax:   100,
			// kg/s outflow to mg/s inflow
			Scale:     -1000000,
			Locations: []string{"Right Carotid", "Left Carotid"},
		},
	}
}
