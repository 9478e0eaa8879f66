package stage

import "github.com/sells-group/metal-lca/internal/model"

// fallbacks builds the metal-specific fallback map; zero entries are skipped.
func fallbacks(copper, aluminium, steel float64) map[model.MetalType]float64 {
	m := make(map[model.MetalType]float64, 3)
	if copper != 0 {
		m[model.MetalCopper] = copper
	}
	if aluminium != 0 {
		m[model.MetalAluminium] = aluminium
	}
	if steel != 0 {
		m[model.MetalSteel] = steel
	}
	return m
}

func field(name, unit string, lo, hi, def float64, perMetal map[model.MetalType]float64) FieldSpec {
	d := def
	return FieldSpec{
		Name:       name,
		Unit:       unit,
		ValidRange: Range{Min: lo, Max: hi},
		Fallbacks:  perMetal,
		Default:    &d,
	}
}

// DefaultDefinitions returns the built-in six-stage catalog.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Name:  model.StageMining,
			Basis: "per tonne ore",
			Fields: []FieldSpec{
				field("OreGradePercent", "%", 0.01, 100, 1.0, fallbacks(0.6, 45, 60)),
				field("DieselUseLitresPerTonneOre", "L/t", 0, 100, 2.5, fallbacks(3.0, 1.5, 1.8)),
				field("ElectricityUseKilowattHoursPerTonneOre", "kWh/t", 0, 1000, 40, fallbacks(60, 15, 25)),
				field("ExplosivesUseKilogramsPerTonneOre", "kg/t", 0, 10, 0.3, fallbacks(0.4, 0.1, 0.25)),
				field("WaterUseCubicMetersPerTonneOre", "m3/t", 0, 50, 0.8, fallbacks(1.2, 0.3, 0.5)),
				field("TransportDistanceKilometersMining", "km", 0, 5000, 150, nil),
			},
			Outputs: []OutputSpec{
				{Name: "CarbonFootprintMiningKgCO2e", Unit: "kg CO2e"},
				{Name: "EnergyFootprintMiningMegajoules", Unit: "MJ"},
				{Name: "WaterFootprintMiningCubicMeters", Unit: "m3"},
				{Name: "ParticulateMatterMiningKg", Unit: "kg"},
			},
		},
		{
			Name:  model.StageConcentration,
			Basis: "per tonne concentrate",
			Fields: []FieldSpec{
				field("ConcentrateRecoveryPercent", "%", 1, 100, 85, fallbacks(88, 90, 80)),
				field("GrindingEnergyKilowattHoursPerTonneConcentrate", "kWh/t", 0, 500, 25, fallbacks(30, 10, 20)),
				field("FlotationReagentKilogramsPerTonneConcentrate", "kg/t", 0, 50, 1.0, fallbacks(1.5, 0.2, 0.5)),
				field("ProcessWaterCubicMetersPerTonneConcentrate", "m3/t", 0, 100, 2.5, fallbacks(3.0, 0, 0)),
				field("TailingsTonnesPerTonneConcentrate", "t/t", 0, 500, 25, fallbacks(30, 2, 1.5)),
			},
			Outputs: []OutputSpec{
				{Name: "CarbonFootprintConcentrationKgCO2e", Unit: "kg CO2e"},
				{Name: "EnergyFootprintConcentrationMegajoules", Unit: "MJ"},
				{Name: "WaterFootprintConcentrationCubicMeters", Unit: "m3"},
				{Name: "TailingsGeneratedTonnes", Unit: "t"},
			},
		},
		{
			Name:  model.StageSmelting,
			Basis: "per tonne metal",
			Fields: []FieldSpec{
				field("SmeltEnergyKilowattHoursPerTonneMetal", "kWh/t", 0, 20000, 3000, fallbacks(2500, 14500, 550)),
				field("ReductantCokeKilogramsPerTonneMetal", "kg/t", 0, 1000, 250, fallbacks(50, 450, 350)),
				field("NaturalGasCubicMetersPerTonneMetal", "m3/t", 0, 2000, 150, fallbacks(120, 80, 100)),
				field("FluxUseKilogramsPerTonneMetal", "kg/t", 0, 1000, 150, fallbacks(200, 30, 250)),
				field("SulfurCaptureEfficiencyPercent", "%", 0, 100, 90, fallbacks(95, 85, 85)),
				field("SmelterMetalYieldPercent", "%", 1, 100, 95, fallbacks(97, 95, 93)),
			},
			Outputs: []OutputSpec{
				{Name: "CarbonFootprintSmeltingKgCO2e", Unit: "kg CO2e"},
				{Name: "EnergyFootprintSmeltingMegajoules", Unit: "MJ"},
				{Name: "SOxEmissionsSmeltingKg", Unit: "kg"},
				{Name: "NOxEmissionsSmeltingKg", Unit: "kg"},
				{Name: "ParticulateMatterSmeltingKg", Unit: "kg"},
			},
		},
		{
			Name:  model.StageFabrication,
			Basis: "per tonne product",
			Fields: []FieldSpec{
				field("FabricationEnergyKilowattHoursPerTonneProduct", "kWh/t", 0, 5000, 600, fallbacks(500, 900, 450)),
				field("FabricationNaturalGasCubicMetersPerTonneProduct", "m3/t", 0, 1000, 60, nil),
				field("MaterialYieldPercent", "%", 1, 100, 85, fallbacks(88, 80, 90)),
				field("ScrapGeneratedKilogramsPerTonneProduct", "kg/t", 0, 1000, 150, nil),
				field("TransportDistanceKilometersFabrication", "km", 0, 10000, 500, nil),
			},
			Outputs: []OutputSpec{
				{Name: "CarbonFootprintFabricationKgCO2e", Unit: "kg CO2e"},
				{Name: "EnergyFootprintFabricationMegajoules", Unit: "MJ"},
				{Name: "NOxEmissionsFabricationKg", Unit: "kg"},
				{Name: "ProcessScrapTonnes", Unit: "t"},
			},
		},
		{
			Name:  model.StageUsePhase,
			Basis: "per tonne product",
			Fields: []FieldSpec{
				field("ProductLifetimeYears", "years", 0.1, 200, 25, fallbacks(30, 20, 40)),
				field("AnnualEnergyUseKilowattHoursPerTonneProduct", "kWh/t/yr", 0, 10000, 100, nil),
				field("MaintenanceMaterialKilogramsPerTonneProductYear", "kg/t/yr", 0, 100, 2, nil),
				field("TransportDistanceKilometersUsePhase", "km", 0, 20000, 300, nil),
			},
			Outputs: []OutputSpec{
				{Name: "CarbonFootprintUsePhaseKgCO2e", Unit: "kg CO2e"},
				{Name: "EnergyFootprintUsePhaseMegajoules", Unit: "MJ"},
			},
		},
		{
			Name:  model.StageEndOfLife,
			Basis: "per tonne metal",
			Fields: []FieldSpec{
				field("CollectionRatePercent", "%", 0, 100, 70, fallbacks(80, 75, 85)),
				field("RecyclingRatePercent", "%", 0, 100, 60, fallbacks(65, 70, 80)),
				field("RecyclingEnergyKilowattHoursPerTonneMetal", "kWh/t", 0, 10000, 1200, fallbacks(1000, 700, 1100)),
				field("LandfillFractionPercent", "%", 0, 100, 25, nil),
				field("TransportDistanceKilometersEndOfLife", "km", 0, 5000, 150, nil),
			},
			Outputs: []OutputSpec{
				{Name: "CarbonFootprintEndOfLifeKgCO2e", Unit: "kg CO2e"},
				{Name: "EnergyFootprintEndOfLifeMegajoules", Unit: "MJ"},
				{Name: "RecoveredMetalTonnes", Unit: "t"},
				{Name: "LandfilledMaterialTonnes", Unit: "t"},
				{Name: "RecyclingCreditKgCO2e", Unit: "kg CO2e"},
			},
		},
	}
}

// Default returns the built-in catalog. It panics if the built-in
// definitions violate the unique-name invariant.
func Default() *Catalog {
	c, err := NewCatalog(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return c
}
